package config

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.viam.com/test"
)

func TestAttributeMapSet(t *testing.T) {
	attrs := AttributeMap{}
	attrs.Set("v_max", 2.)
	attrs.Set("weights.time", 5.)
	attrs.Set("weights.smoothness", 1.)

	test.That(t, attrs.Has("v_max"), test.ShouldBeTrue)
	test.That(t, attrs.Has("weights.time"), test.ShouldBeTrue)
	test.That(t, attrs.Has("weights.waypoint"), test.ShouldBeFalse)
	test.That(t, attrs.Has("v_max.nested"), test.ShouldBeFalse)

	want := AttributeMap{
		"v_max":   2.,
		"weights": AttributeMap{"time": 5., "smoothness": 1.},
	}
	test.That(t, cmp.Diff(want, attrs), test.ShouldBeEmpty)

	// a scalar in the way is replaced by a nested map
	attrs.Set("v_max.nested", 1.)
	test.That(t, attrs.Has("v_max.nested"), test.ShouldBeTrue)
}

func TestAttributeMapMerge(t *testing.T) {
	attrs := AttributeMap{
		"type":    "loco",
		"weights": map[string]interface{}{"time": 1., "waypoint": 100.},
	}
	attrs.Merge(AttributeMap{
		"type":    "polynomial",
		"weights": AttributeMap{"time": 3.},
	})
	want := AttributeMap{
		"type":    "polynomial",
		"weights": AttributeMap{"time": 3., "waypoint": 100.},
	}
	test.That(t, cmp.Diff(want, attrs), test.ShouldBeEmpty)
}

func TestParseOverrides(t *testing.T) {
	attrs, err := ParseOverrides([]string{"v_max=2.5", " weights.time = 4 ", "type=polynomial", "empty="})
	test.That(t, err, test.ShouldBeNil)
	want := AttributeMap{
		"v_max":   "2.5",
		"type":    "polynomial",
		"empty":   "",
		"weights": AttributeMap{"time": "4"},
	}
	test.That(t, cmp.Diff(want, attrs), test.ShouldBeEmpty)

	_, err = ParseOverrides([]string{"v_max"})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "key=value")

	_, err = ParseOverrides([]string{"=3"})
	test.That(t, err, test.ShouldNotBeNil)

	attrs, err = ParseOverrides(nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, attrs, test.ShouldBeEmpty)
}
