package validators

import "go.mongodb.org/mongo-driver/bson"

// DocumentValidator matches the {_id: path, value: subtree} layout written by
// the mongo document store. Paths never start or end with a slash and carry
// none of the characters the store rejects.
var DocumentValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType":             "object",
		"required":             []string{"_id", "value"},
		"additionalProperties": false,
		"properties": bson.M{
			"_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 1024,
				"pattern":   `^[^/.#$\[\]]+(/[^/.#$\[\]]+)*$`,
			},
			"value": bson.M{},
		},
	},
}
