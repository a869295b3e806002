package patch

import (
	"encoding/json"
	"reflect"
	"testing"

	qt "github.com/frankban/quicktest"
)

type categoryUpdate struct {
	Name      Field[string]  `json:"name"`
	SortOrder Field[int]     `json:"sort_order"`
	GroupID   Field[*string] `json:"group_id"`
}

func TestField_UnmarshalPresence(t *testing.T) {
	c := qt.New(t)

	var u categoryUpdate
	err := json.Unmarshal([]byte(`{"name":"Rent","group_id":null}`), &u)
	c.Assert(err, qt.IsNil)

	c.Assert(u.Name.Set, qt.IsTrue)
	c.Assert(u.Name.Null, qt.IsFalse)
	c.Assert(u.Name.Value, qt.Equals, "Rent")

	c.Assert(u.SortOrder.Set, qt.IsFalse)

	c.Assert(u.GroupID.Set, qt.IsTrue)
	c.Assert(u.GroupID.Null, qt.IsTrue)
	c.Assert(u.GroupID.Value, qt.IsNil)
}

func TestField_UnmarshalPointerValue(t *testing.T) {
	c := qt.New(t)

	var u categoryUpdate
	err := json.Unmarshal([]byte(`{"group_id":"abc","sort_order":0}`), &u)
	c.Assert(err, qt.IsNil)

	c.Assert(u.GroupID.Value, qt.Not(qt.IsNil))
	c.Assert(*u.GroupID.Value, qt.Equals, "abc")

	v, ok := u.SortOrder.Get()
	c.Assert(ok, qt.IsTrue)
	c.Assert(v, qt.Equals, 0)
}

func TestField_UnmarshalTypeMismatch(t *testing.T) {
	c := qt.New(t)

	var u categoryUpdate
	err := json.Unmarshal([]byte(`{"sort_order":"first"}`), &u)
	c.Assert(err, qt.Not(qt.IsNil))
}

func TestField_Marshal(t *testing.T) {
	c := qt.New(t)

	data, err := json.Marshal(categoryUpdate{Name: Some("Food"), GroupID: Null[*string]()})
	c.Assert(err, qt.IsNil)
	c.Assert(string(data), qt.Equals, `{"name":"Food","sort_order":null,"group_id":null}`)
}

func TestField_ValidationValue(t *testing.T) {
	c := qt.New(t)
	id := "abc"

	c.Assert(Field[string]{}.ValidationValue(), qt.IsNil)
	c.Assert(Null[string]().ValidationValue(), qt.IsNil)
	c.Assert(Some("x").ValidationValue(), qt.Equals, "x")
	c.Assert(Some(&id).ValidationValue(), qt.Equals, "abc")
	c.Assert(Some[*string](nil).ValidationValue(), qt.IsNil)

	c.Assert(ValidationValueOf(reflect.ValueOf(Some(7))), qt.Equals, 7)
	c.Assert(ValidationValueOf(reflect.ValueOf(42)), qt.IsNil)
}
