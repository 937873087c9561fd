package errcode

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Every concrete kind with its fixed-code constructor.
var fixedKinds = []struct {
	kind Kind
	make func(string) *Error
	code uint32
}{
	{KindAssertion, Assertion, 10},
	{KindLookup, Lookup, 20},
	{KindIndex, Index, 21},
	{KindKey, Key, 22},
	{KindType, Type, 30},
	{KindValue, Value, 40},
	{KindNarrowing, Narrowing, 41},
	{KindRuntime, Runtime, 50},
	{KindNotImplemented, NotImplemented, 51},
	{KindEnvironment, Environment, 60},
	{KindIO, IO, 61},
	{KindOS, OS, 62},
	{KindSystem, System, 70},
	{KindSyntax, Syntax, 80},
}

func TestMessageRoundTrip(t *testing.T) {
	for _, tc := range fixedKinds {
		e := tc.make("something broke")
		assert.Equal(t, "something broke", e.Message(), "%v", tc.kind)
		assert.Equal(t, tc.kind.String()+": something broke", e.Error())
	}
	e := USB(-5, "exchange failed")
	assert.Equal(t, "exchange failed", e.Message())
}

func TestFixedCodesDistinct(t *testing.T) {
	seen := map[uint32]Kind{}
	for _, tc := range fixedKinds {
		e1 := tc.make("a")
		e2 := tc.make("b")
		require.Equal(t, tc.code, e1.Code())
		require.Equal(t, e1.Code(), e2.Code(), "code must be constant across instances of %v", tc.kind)
		if prev, dup := seen[tc.code]; dup {
			t.Fatalf("code %d shared by %v and %v", tc.code, prev, tc.kind)
		}
		seen[tc.code] = tc.kind
	}
}

func TestUSBCodeIsPerInstance(t *testing.T) {
	assert.Equal(t, uint32(0xFFFFFFFB), USB(-5, "x").Code()) // errno carried as-is
	assert.Equal(t, uint32(110), USB(110, "timeout").Code())
	assert.NotEqual(t, USB(1, "x").Code(), USB(2, "x").Code())
}

func TestHierarchyMatching(t *testing.T) {
	var err error = Key("no such peripheral")

	assert.True(t, errors.Is(err, KindKey))
	assert.True(t, errors.Is(err, KindLookup), "KeyError must be caught by a LookupError handler")
	assert.True(t, errors.Is(err, KindNone), "root catches everything")
	assert.False(t, errors.Is(err, KindIndex), "sibling kinds must not match")
	assert.False(t, errors.Is(err, KindRuntime))

	var err2 error = USB(-71, "bus fault")
	assert.True(t, errors.Is(err2, KindUSB))
	assert.True(t, errors.Is(err2, KindRuntime), "USBError is a RuntimeError")
	assert.False(t, errors.Is(err2, KindNotImplemented))
}

func TestCloneLaw(t *testing.T) {
	for _, tc := range fixedKinds {
		e := tc.make("msg")
		c := e.Clone()
		require.NotSame(t, e, c)
		assert.Equal(t, e.Message(), c.Message())
		assert.Equal(t, e.Code(), c.Code())
		assert.True(t, errors.Is(c, tc.kind), "clone must be caught by the concrete kind")
	}

	u := USB(42, "bus fault")
	c := u.Clone()
	assert.Equal(t, uint32(42), c.Code())
	assert.True(t, errors.Is(c, KindUSB))
}

func TestRethrowLaw(t *testing.T) {
	// Capture through the abstract reference, rethrow, catch concretely.
	raise := func() error { return Index(Site("slot 9 out of range")) }

	var held error = raise()
	var taxErr *Error
	require.True(t, errors.As(held, &taxErr))

	rethrown := taxErr.Rethrow()
	assert.True(t, errors.Is(rethrown, KindIndex), "rethrow must restore the concrete kind")
	assert.False(t, errors.Is(rethrown, KindKey), "never a sibling kind")
	assert.True(t, errors.Is(rethrown, KindLookup))
	assert.Equal(t, taxErr.Message(), rethrown.(*Error).Message())

	u := USB(-110, "exchange timed out")
	r := u.Rethrow()
	assert.Equal(t, u.Code(), r.(*Error).Code(), "rethrow keeps the per-instance status")
}

func TestSiteAnnotation(t *testing.T) {
	msg := Site("boom")
	assert.True(t, strings.HasPrefix(msg, "boom\n"))
	assert.Contains(t, msg, "  in ")
	assert.Contains(t, msg, "errcode_test.go:")
}

func TestCheck(t *testing.T) {
	require.NoError(t, Check(true, "always holds"))

	err := Check(false, "length == 7")
	require.Error(t, err)
	assert.True(t, errors.Is(err, KindAssertion))
	assert.Contains(t, err.Error(), "length == 7")
}

func TestInvalidCodePath(t *testing.T) {
	err := InvalidCodePath()
	assert.True(t, errors.Is(err, KindSystem))
	assert.Contains(t, err.Error(), "invalid code path")
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindValue, KindOf(Value("bad addr")))
	assert.Equal(t, KindNone, KindOf(errors.New("foreign")))
	assert.Equal(t, KindNone, KindOf(nil))
}
