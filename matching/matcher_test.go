package matching

import (
	"testing"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"go.viam.com/test"
)

func TestStem(t *testing.T) {
	test.That(t, Stem("1730367118.051969.png"), test.ShouldEqual, "1730367118.051969")
	test.That(t, Stem("/data/run/1730367118.051969.png"), test.ShouldEqual, "1730367118.051969")
	test.That(t, Stem("cloud_1730367118.051969_raw.pcd"), test.ShouldEqual, "1730367118.051969_raw")
	test.That(t, Stem("plain"), test.ShouldEqual, "plain")
}

func TestResolvePrefixConvention(t *testing.T) {
	logger := golog.NewTestLogger(t)
	got, err := Resolve("1730367118.051969.png",
		[]string{"cloud_1730367118.051969_raw.pcd", "cloud_other.pcd"}, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, got, test.ShouldEqual, "cloud_1730367118.051969_raw.pcd")
}

func TestResolveExactStem(t *testing.T) {
	logger := golog.NewTestLogger(t)
	got, err := Resolve("frame42.png", []string{"frame41.pcd", "frame42.pcd"}, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, got, test.ShouldEqual, "frame42.pcd")

	// a record already naming a pcd resolves to itself
	got, err = Resolve("frame42.pcd", []string{"frame41.pcd", "frame42.pcd"}, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, got, test.ShouldEqual, "frame42.pcd")
}

func TestResolveSubstringTieBreaks(t *testing.T) {
	logger := golog.NewTestLogger(t)

	// both contain the stem; equal overlap resolves lexicographically
	got, err := Resolve("42.png", []string{"scan_42_b.pcd", "scan_42_a.pcd"}, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, got, test.ShouldEqual, "scan_42_a.pcd")
}

func TestResolveUnresolved(t *testing.T) {
	logger := golog.NewTestLogger(t)
	_, err := Resolve("1730367118.051969.png", []string{"cloud_other.pcd"}, logger)
	test.That(t, errors.Is(err, ErrUnresolved), test.ShouldBeTrue)

	_, err = Resolve("anything.png", nil, logger)
	test.That(t, errors.Is(err, ErrUnresolved), test.ShouldBeTrue)
}

func TestResolveDeterministicOrder(t *testing.T) {
	logger := golog.NewTestLogger(t)
	a, err := Resolve("42.png", []string{"x_42_1.pcd", "a_42_1.pcd"}, logger)
	test.That(t, err, test.ShouldBeNil)
	b, err := Resolve("42.png", []string{"a_42_1.pcd", "x_42_1.pcd"}, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, a, test.ShouldEqual, b)
}

func TestLongestCommonSubstring(t *testing.T) {
	test.That(t, longestCommonSubstring("", "abc"), test.ShouldEqual, 0)
	test.That(t, longestCommonSubstring("abc", "abc"), test.ShouldEqual, 3)
	test.That(t, longestCommonSubstring("xabcy", "zabcw"), test.ShouldEqual, 3)
	test.That(t, longestCommonSubstring("abcdef", "defabc"), test.ShouldEqual, 3)
}
