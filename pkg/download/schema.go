package download

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/xeipuuv/gojsonschema"
)

// A page is a JSON array. Its elements are classified one by one by the player
// quality rules, so a malformed element never rejects the whole page.
const pageSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "array"
}`

var pageSchemaLoader = gojsonschema.NewStringLoader(pageSchema)

func validatePage(body []byte) error {
	result, err := gojsonschema.Validate(pageSchemaLoader, gojsonschema.NewBytesLoader(body))
	if err != nil {
		return errors.Wrap(err, "failed to parse page")
	}

	if result.Valid() {
		return nil
	}

	problems := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		problems = append(problems, e.String())
	}

	return errors.New(strings.Join(problems, "; "))
}
