package utils

import (
	"testing"

	"go.viam.com/test"
)

var sampleAttributeMap = AttributeMap{
	"ok_boolean_false": false,
	"ok_boolean_true":  true,
	"bad_boolean_true": "true",
	"platform":         "i2s_audio",
	"bad_string":       123,
}

func TestAttributeMap(t *testing.T) {
	test.That(t, sampleAttributeMap.Has("platform"), test.ShouldBeTrue)
	test.That(t, sampleAttributeMap.Has("junk_key"), test.ShouldBeFalse)

	without := sampleAttributeMap.Without("platform", "bad_string")
	test.That(t, without.Keys(), test.ShouldResemble, []string{"bad_boolean_true", "ok_boolean_false", "ok_boolean_true"})
	test.That(t, sampleAttributeMap.Has("platform"), test.ShouldBeTrue)
}

func TestAssertType(t *testing.T) {
	s, err := AssertType[string]("mic")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, s, test.ShouldEqual, "mic")

	_, err = AssertType[int]("mic")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "expected int but got string")
}
