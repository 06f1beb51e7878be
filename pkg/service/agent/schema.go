package agent

import (
	"sort"

	"github.com/m-mizutani/gollem"
)

// parameterSchema converts a gollem parameter tree into a JSON schema object
func parameterSchema(p *gollem.Parameter) map[string]any {
	if p == nil {
		return map[string]any{"type": "object"}
	}

	schema := map[string]any{"type": string(p.Type)}
	if p.Description != "" {
		schema["description"] = p.Description
	}
	if len(p.Enum) > 0 {
		schema["enum"] = p.Enum
	}
	if p.Items != nil {
		schema["items"] = parameterSchema(p.Items)
	}
	if len(p.Properties) > 0 {
		props, required := propertiesSchema(p.Properties)
		schema["properties"] = props
		if len(required) > 0 {
			schema["required"] = required
		}
	}
	return schema
}

func propertiesSchema(params map[string]*gollem.Parameter) (map[string]any, []string) {
	props := make(map[string]any, len(params))
	var required []string
	for name, p := range params {
		props[name] = parameterSchema(p)
		if p != nil && p.Required {
			required = append(required, name)
		}
	}
	sort.Strings(required)
	return props, required
}
