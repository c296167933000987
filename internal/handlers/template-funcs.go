package handlers

import (
	"html/template"
	"strings"
)

func templateFuncMap() template.FuncMap {
	return template.FuncMap{
		"ariaInvalid": func(message string) string {
			if message != "" {
				return "true"
			}
			return "false"
		},
		"fieldClass": func(message string) string {
			if message != "" {
				return "field field--error"
			}
			return "field"
		},
		"upper": strings.ToUpper,
		"initial": func(name string) string {
			for _, r := range strings.TrimSpace(name) {
				return strings.ToUpper(string(r))
			}
			return ""
		},
	}
}
