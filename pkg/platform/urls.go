package platform

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
)

// Archive URL templates. Rendered with sprig helpers so versions can be
// passed as tagged ("v3.24.3") or bare strings.
const (
	jdkURLTemplate = "https://api.adoptium.net/v3/binary/latest/" +
		"{{ .Version | trimPrefix \"jdk-\" }}/ga/{{ .OS }}/{{ .Arch }}/jdk/hotspot/normal/eclipse"

	cmdlineToolsURLTemplate = "https://dl.google.com/android/repository/" +
		"commandlinetools-{{ .OS }}-{{ .Revision }}_latest.zip"

	flutterURLTemplate = "https://storage.googleapis.com/flutter_infra_release/releases/stable/" +
		"{{ .OS }}/flutter_{{ .OS }}_{{ .Version | trimPrefix \"v\" }}-stable.{{ .Ext }}"
)

// renderURL executes an archive URL template over the given data.
func renderURL(name, tmpl string, data map[string]string) (string, error) {
	t, err := template.New(name).Funcs(sprig.FuncMap()).Parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("parse %s url template: %w", name, err)
	}
	var b strings.Builder
	if err := t.Execute(&b, data); err != nil {
		return "", fmt.Errorf("render %s url: %w", name, err)
	}
	return b.String(), nil
}
