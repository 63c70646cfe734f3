// Package docs embeds the OpenAPI document of the HTTP API.
package docs

import (
	_ "embed"
	"fmt"
	"sync"

	"github.com/ghodss/yaml"
	"github.com/swaggo/swag"
)

//go:embed swagger.yaml
var swaggerYAML []byte

type document struct {
	json string
}

func (d document) ReadDoc() string {
	return d.json
}

var (
	once    sync.Once
	docJSON []byte
	docErr  error
)

// JSON returns the document converted to JSON.
func JSON() ([]byte, error) {
	once.Do(func() {
		docJSON, docErr = yaml.YAMLToJSON(swaggerYAML)
		if docErr != nil {
			docErr = fmt.Errorf("docs: convert swagger.yaml: %w", docErr)
			return
		}
		swag.Register(swag.Name, document{json: string(docJSON)})
	})
	return docJSON, docErr
}
