package pdfcheck

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDoc struct {
	pages  []string
	closed bool
}

func (d *fakeDoc) NumPage() int { return len(d.pages) }
func (d *fakeDoc) Close() error { d.closed = true; return nil }
func (d *fakeDoc) Text(i int) (string, error) {
	if d.pages[i] == "!" {
		return "", errors.New("broken page")
	}
	return d.pages[i], nil
}

type fakeOpener struct {
	doc *fakeDoc
	err error
}

func (o fakeOpener) Open(string) (Doc, error) {
	if o.err != nil {
		return nil, o.err
	}
	return o.doc, nil
}

func TestHasTextLayer(t *testing.T) {
	doc := &fakeDoc{pages: []string{"Invoice   no. 4711", "\n\n", "Total due: 12.50 EUR"}}
	c := &Checker{Opener: fakeOpener{doc: doc}, MinChars: 20}

	rep, err := c.HasTextLayer("doc.pdf")
	require.NoError(t, err)
	assert.True(t, rep.HasText)
	assert.Equal(t, []int{0, 1, 2}, rep.SampledPages)
	assert.True(t, doc.closed)
}

func TestHasTextLayerImageOnly(t *testing.T) {
	doc := &fakeDoc{pages: []string{"", "!", " ", "", "", ""}}
	c := &Checker{Opener: fakeOpener{doc: doc}}

	rep, err := c.HasTextLayer("scan.pdf")
	require.NoError(t, err)
	assert.False(t, rep.HasText)
	assert.Equal(t, []int{0, 3, 5}, rep.SampledPages)
	assert.Equal(t, DefaultMinChars, rep.MinChars)
}

func TestHasTextLayerOpenError(t *testing.T) {
	c := &Checker{Opener: fakeOpener{err: errors.New("not a pdf")}}
	_, err := c.HasTextLayer("x.pdf")
	assert.ErrorContains(t, err, "not a pdf")
}

func TestSampleIndices(t *testing.T) {
	assert.Empty(t, sampleIndices(0))
	assert.Equal(t, []int{0}, sampleIndices(1))
	assert.Equal(t, []int{0, 5, 9}, sampleIndices(10))
	assert.Equal(t, []int{0, 2, 3}, sampleIndices(4))
}
