package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/arkilian/schemaengine/pkg/types"
)

// schemaFile is the on-disk YAML/JSON shape of a target schema: a map of
// class name to class definition, read the same way LoadFromFile reads
// Config — the extension picks the codec.
type schemaFile struct {
	Classes map[string]classDef `json:"classes" yaml:"classes"`
}

type classDef struct {
	Embedded   bool               `json:"embedded" yaml:"embedded"`
	PrimaryKey string             `json:"primary_key" yaml:"primary_key"`
	Properties map[string]propDef `json:"properties" yaml:"properties"`
}

type propDef struct {
	// Type is a short type string: one of the BaseType names
	// ("int", "bool", "float", "double", "string", "date", "data",
	// "objectId", "decimal128", "uuid", "mixed"), "object" (with Target
	// set), or "linkingObjects" (with Target and Property set).
	Type       string `json:"type" yaml:"type"`
	Nullable   bool   `json:"nullable" yaml:"nullable"`
	Collection string `json:"collection" yaml:"collection"` // "", "list", "set", "dictionary"
	Index      string `json:"index" yaml:"index"`           // "", "general", "fulltext"
	Target     string `json:"target" yaml:"target"`         // class name, for object/linkingObjects
	Property   string `json:"property" yaml:"property"`     // origin property, for linkingObjects
}

// LoadSchemaFile reads a YAML or JSON schema description from path and
// builds a types.Schema from it.
func LoadSchemaFile(path string) (types.Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.Schema{}, fmt.Errorf("config: read schema file: %w", err)
	}

	var file schemaFile
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &file); err != nil {
			return types.Schema{}, fmt.Errorf("config: parse YAML schema: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &file); err != nil {
			return types.Schema{}, fmt.Errorf("config: parse JSON schema: %w", err)
		}
	default:
		return types.Schema{}, fmt.Errorf("config: unsupported schema file format: %s", ext)
	}

	classes := make([]types.ObjectSchema, 0, len(file.Classes))
	for name, def := range file.Classes {
		object, err := buildObjectSchema(name, def)
		if err != nil {
			return types.Schema{}, err
		}
		classes = append(classes, object)
	}
	return types.NewSchema(classes), nil
}

func buildObjectSchema(name string, def classDef) (types.ObjectSchema, error) {
	object := types.ObjectSchema{
		Name:       name,
		PrimaryKey: def.PrimaryKey,
	}
	if def.Embedded {
		object.TableType = types.Embedded
	}

	for propName, propdef := range def.Properties {
		property, err := buildProperty(name, propName, propdef)
		if err != nil {
			return types.ObjectSchema{}, err
		}
		if property.Type.Base == types.LinkingObjects {
			object.ComputedProperties = append(object.ComputedProperties, property)
			continue
		}
		if propName == def.PrimaryKey {
			property.IsPrimary = true
		}
		object.PersistedProperties = append(object.PersistedProperties, property)
	}
	return object, nil
}

func buildProperty(className, propName string, def propDef) (types.Property, error) {
	property := types.Property{
		Name:               propName,
		ObjectType:         def.Target,
		LinkOriginProperty: def.Property,
	}

	base, err := parseBaseType(def.Type)
	if err != nil {
		return types.Property{}, fmt.Errorf("config: %s.%s: %w", className, propName, err)
	}
	collection, err := parseCollection(def.Collection)
	if err != nil {
		return types.Property{}, fmt.Errorf("config: %s.%s: %w", className, propName, err)
	}
	index, err := parseIndex(def.Index)
	if err != nil {
		return types.Property{}, fmt.Errorf("config: %s.%s: %w", className, propName, err)
	}

	property.Type = types.PropertyType{Base: base, Nullable: def.Nullable, Collection: collection}
	property.Index = index

	if (base == types.Object || base == types.LinkingObjects) && def.Target == "" {
		return types.Property{}, fmt.Errorf("config: %s.%s: target is required for type %q", className, propName, def.Type)
	}
	return property, nil
}

func parseBaseType(s string) (types.BaseType, error) {
	switch s {
	case "int":
		return types.Int, nil
	case "bool":
		return types.Bool, nil
	case "float":
		return types.Float, nil
	case "double":
		return types.Double, nil
	case "string":
		return types.String, nil
	case "date":
		return types.Date, nil
	case "data":
		return types.Data, nil
	case "objectId":
		return types.ObjectId, nil
	case "decimal128":
		return types.Decimal, nil
	case "uuid":
		return types.UUID, nil
	case "mixed":
		return types.Mixed, nil
	case "object":
		return types.Object, nil
	case "linkingObjects":
		return types.LinkingObjects, nil
	default:
		return 0, fmt.Errorf("unknown property type %q", s)
	}
}

func parseCollection(s string) (types.CollectionKind, error) {
	switch s {
	case "":
		return types.CollectionNone, nil
	case "list":
		return types.CollectionList, nil
	case "set":
		return types.CollectionSet, nil
	case "dictionary":
		return types.CollectionDictionary, nil
	default:
		return 0, fmt.Errorf("unknown collection kind %q", s)
	}
}

func parseIndex(s string) (types.IndexType, error) {
	switch s {
	case "":
		return types.IndexNone, nil
	case "general":
		return types.IndexGeneral, nil
	case "fulltext":
		return types.IndexFulltext, nil
	default:
		return 0, fmt.Errorf("unknown index type %q", s)
	}
}
