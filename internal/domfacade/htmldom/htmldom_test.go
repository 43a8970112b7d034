package htmldom_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/module/scripthost/internal/domfacade/htmldom"
)

func TestParseAndQuery(t *testing.T) {
	t.Parallel()
	doc, err := htmldom.Parse(`<html><body><div id="app"><p class="greeting">hi</p></div></body></html>`)
	require.NoError(t, err)

	body, ok := doc.Body()
	require.True(t, ok)
	assert.True(t, doc.Exists(body))

	p, ok := doc.QuerySelector(".greeting")
	require.True(t, ok)
	text, ok := doc.TextContent(p)
	require.True(t, ok)
	assert.Equal(t, "hi", text)

	app, ok := doc.ByID("app")
	require.True(t, ok)
	assert.True(t, doc.MatchesSelector(p, ".greeting"))
	closest, ok := doc.Closest(p, "#app")
	require.True(t, ok)
	assert.Equal(t, app, closest)
}

func TestMutationAndRemoval(t *testing.T) {
	t.Parallel()
	doc, err := htmldom.Parse(`<html><body><ul id="list"></ul></body></html>`)
	require.NoError(t, err)

	list, _ := doc.ByID("list")
	item := doc.CreateElement("li")
	doc.SetTextContent(item, "one")
	doc.AppendChild(list, item)

	assert.True(t, doc.Exists(item))
	children := doc.Children(list)
	require.Len(t, children, 1)
	assert.Equal(t, item, children[0])

	doc.RemoveChild(list, item)
	assert.False(t, doc.Exists(item))
}

func TestAttributesAndClassList(t *testing.T) {
	t.Parallel()
	doc, err := htmldom.Parse(`<html><body><div id="x" class="a b a"></div></body></html>`)
	require.NoError(t, err)

	x, _ := doc.ByID("x")
	assert.Equal(t, []string{"a", "b"}, doc.ClassList(x))

	doc.SetClassList(x, []string{"a", "c"})
	v, ok := doc.Attr(x, "class")
	require.True(t, ok)
	assert.Equal(t, "a c", v)
}

func TestFormControlValueAndValidity(t *testing.T) {
	t.Parallel()
	doc, err := htmldom.Parse(`<html><body><input id="name" required></body></html>`)
	require.NoError(t, err)

	input, _ := doc.ByID("name")
	assert.True(t, doc.Required(input))

	validity, ok := doc.Validity(input)
	require.True(t, ok)
	assert.True(t, validity.ValueMissing)
	assert.False(t, validity.Valid())

	doc.SetValue(input, "ada")
	validity, _ = doc.Validity(input)
	assert.True(t, validity.Valid())

	doc.SetCustomValidityMessage(input, "taken")
	validity, _ = doc.Validity(input)
	assert.True(t, validity.CustomError)
	assert.False(t, validity.Valid())
}

func TestExistsForUnknownNode(t *testing.T) {
	t.Parallel()
	doc, err := htmldom.Parse(`<html><body></body></html>`)
	require.NoError(t, err)
	assert.False(t, doc.Exists(999999))
}
