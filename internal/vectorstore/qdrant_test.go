package vectorstore

import (
	"reflect"
	"testing"

	"github.com/qdrant/go-client/qdrant"
)

func TestConvertPayloadToMap(t *testing.T) {
	payload := map[string]*qdrant.Value{
		"book_id":    {Kind: &qdrant.Value_StringValue{StringValue: "book-1"}},
		"chapter_id": {Kind: &qdrant.Value_StringValue{StringValue: "ch-2"}},
		"chunk_pos":  {Kind: &qdrant.Value_IntegerValue{IntegerValue: 3}},
		"score_hint": {Kind: &qdrant.Value_DoubleValue{DoubleValue: 0.5}},
		"archived":   {Kind: &qdrant.Value_BoolValue{BoolValue: true}},
		"nil_value":  nil,
	}

	got := convertPayloadToMap(payload)
	want := map[string]any{
		"book_id":    "book-1",
		"chapter_id": "ch-2",
		"chunk_pos":  int64(3),
		"score_hint": 0.5,
		"archived":   true,
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("convertPayloadToMap() = %v, want %v", got, want)
	}
}

func TestConvertValueNested(t *testing.T) {
	v := &qdrant.Value{Kind: &qdrant.Value_ListValue{ListValue: &qdrant.ListValue{
		Values: []*qdrant.Value{
			{Kind: &qdrant.Value_StringValue{StringValue: "a"}},
			{Kind: &qdrant.Value_IntegerValue{IntegerValue: 2}},
		},
	}}}

	got := convertValue(v)
	want := []any{"a", int64(2)}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("convertValue() = %v, want %v", got, want)
	}
}
