package textconv

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromHTMLFlattensStructure(t *testing.T) {
	t.Parallel()

	raw := `<html><head><title>Ignored</title><style>p { color: red }</style></head>
<body>
  <h1>Welcome</h1>
  <p>We are <a href="/about">a firm</a> in London.</p>
  <img src="logo.png" alt="logo">
  <ul><li>One</li><li>Two</li></ul>
  <script>var tracking = true;</script>
</body></html>`

	got, err := FromHTML(raw)
	require.NoError(t, err)
	assert.Equal(t, "# Welcome\n\nWe are a firm in London.\n\n* One\n* Two", got)
}

func TestFromHTMLDropsLinksAndImagesButKeepsWords(t *testing.T) {
	t.Parallel()

	got, err := FromHTML(`<div>Read <a href="https://example.com/x">our story</a><img src="x.png"></div>`)
	require.NoError(t, err)
	assert.Equal(t, "Read our story", got)
	assert.NotContains(t, got, "https://")
	assert.NotContains(t, got, "x.png")
}

func TestFromHTMLLineBreaksAndHeadings(t *testing.T) {
	t.Parallel()

	got, err := FromHTML(`<body><h3>Careers</h3>Line one<br>Line two</body>`)
	require.NoError(t, err)
	assert.Equal(t, "### Careers\n\nLine one\nLine two", got)
}

func TestFromHTMLEmptyDocument(t *testing.T) {
	t.Parallel()

	got, err := FromHTML("")
	require.NoError(t, err)
	assert.Empty(t, got)
}
