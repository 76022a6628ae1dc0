package path

import (
	"bytes"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

func ReadYaml(fs afero.Fs, path string, out interface{}) error {
	buf, err := afero.ReadFile(fs, path)
	if err != nil {
		return errors.Wrapf(err, "failed to read file %s", path)
	}

	return ConvertYamlToObject(buf, out)
}

func WriteYaml(fs afero.Fs, path string, content interface{}) error {
	buf, err := yaml.Marshal(content)
	if err != nil {
		return errors.Wrapf(err, "failed to marshal object to yaml")
	}

	err = afero.WriteFile(fs, path, buf, 0o644)
	if err != nil {
		return errors.Wrapf(err, "failed to write YAML file to %s", path)
	}

	return nil
}

// ConvertYamlToObject decodes buf into out, rejecting keys that out does not declare,
// and then runs the `validate` struct tags. Validation failures are returned as
// validator.ValidationErrors, unwrapped.
func ConvertYamlToObject(buf []byte, out interface{}) error {
	dec := yaml.NewDecoder(bytes.NewReader(buf))
	dec.KnownFields(true)

	err := dec.Decode(out)
	if err != nil {
		return errors.Wrap(err, "failed to parse yaml")
	}

	return ValidateStruct(out)
}

// ValidateStruct runs the `validate` tags of out. Field names in the returned errors
// are the yaml keys.
func ValidateStruct(out interface{}) error {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})

	return validate.Struct(out)
}

// FileExists reports whether a regular file exists at path.
func FileExists(fs afero.Fs, path string) bool {
	res, err := afero.Exists(fs, path)
	if err != nil || !res {
		return false
	}

	isDir, err := afero.IsDir(fs, path)
	return err == nil && !isDir
}
