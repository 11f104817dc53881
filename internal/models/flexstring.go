package models

import (
	"fmt"
	"strconv"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// FlexString decodes a field that legacy documents stored either as a string
// or as a number (mobile numbers written by the old client), without failing
// the entire request.
type FlexString string

// UnmarshalBSONValue accepts string, int32, int64 and double BSON types.
func (s *FlexString) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	switch t {
	case bsontype.Null:
		*s = ""
		return nil
	case bsontype.String:
		var value string
		if err := bson.UnmarshalValue(t, data, &value); err != nil {
			return err
		}
		*s = FlexString(value)
		return nil
	case bsontype.Int32:
		var value int32
		if err := bson.UnmarshalValue(t, data, &value); err != nil {
			return err
		}
		*s = FlexString(strconv.FormatInt(int64(value), 10))
		return nil
	case bsontype.Int64:
		var value int64
		if err := bson.UnmarshalValue(t, data, &value); err != nil {
			return err
		}
		*s = FlexString(strconv.FormatInt(value, 10))
		return nil
	case bsontype.Double:
		var value float64
		if err := bson.UnmarshalValue(t, data, &value); err != nil {
			return err
		}
		*s = FlexString(strconv.FormatFloat(value, 'f', -1, 64))
		return nil
	default:
		return fmt.Errorf("cannot decode %s into FlexString", t)
	}
}

// MarshalBSONValue always stores the value as a string, keeping new writes
// consistent even when legacy documents used a numeric value.
func (s FlexString) MarshalBSONValue() (bsontype.Type, []byte, error) {
	return bson.MarshalValue(string(s))
}
