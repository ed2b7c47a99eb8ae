package toolchain

import (
	"context"
	"fmt"

	"github.com/ormasoftchile/mobup/pkg/probe"
)

// jdkInstalled probes for the java launcher under the resolved home.
func (rt *Runtime) jdkInstalled() probe.Func {
	return probe.FileExists(rt.Paths.JavaBin)
}

// installJDK downloads the Temurin archive for the configured feature
// release and unpacks it into the versioned JDK home. The Adoptium
// redirect hides the filename, so the local name is constructed.
func (rt *Runtime) installJDK(ctx context.Context) error {
	version := rt.Config.Java.Version
	url, err := rt.Adapter.JDKURL(version)
	if err != nil {
		return err
	}
	ext := "tar.gz"
	if rt.Adapter.OS() == "windows" {
		ext = "zip"
	}
	name := fmt.Sprintf("jdk-%s-%s-%s.%s", version, rt.Adapter.OS(), rt.Adapter.Arch(), ext)
	return rt.fetchArchive(ctx, "jdk", url, name, rt.Paths.JavaHome, rt.Config.Java.SHA256)
}
