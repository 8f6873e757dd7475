package fetcher

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEntry struct {
	Title string `xml:"title"`
	Link  string `xml:"link"`
}

func drain[T any](t *testing.T, itemCh <-chan T, errCh <-chan error) []T {
	t.Helper()
	var items []T
	for item := range itemCh {
		items = append(items, item)
	}
	for err := range errCh {
		require.NoError(t, err)
	}
	return items
}

func TestStreamXML_RSSItems(t *testing.T) {
	input := `<?xml version="1.0"?>
<rss><channel><title>Mining News</title>
	<item><title>Copper mine approved</title><link>https://a.example/1</link></item>
	<item><title>Gold PEA released</title><link>https://a.example/2</link></item>
</channel></rss>`

	ch, errCh := StreamXML[testEntry](context.Background(), strings.NewReader(input), "item")
	items := drain(t, ch, errCh)

	require.Len(t, items, 2)
	assert.Equal(t, "Copper mine approved", items[0].Title)
	assert.Equal(t, "https://a.example/2", items[1].Link)
}

func TestStreamXML_MultipleNames(t *testing.T) {
	input := `<feed><entry><title>Atom one</title></entry><item><title>RSS two</title></item><other/></feed>`

	ch, errCh := StreamXML[testEntry](context.Background(), strings.NewReader(input), "item", "entry")
	items := drain(t, ch, errCh)

	require.Len(t, items, 2)
	assert.Equal(t, "Atom one", items[0].Title)
	assert.Equal(t, "RSS two", items[1].Title)
}

func TestStreamXML_HTMLEntities(t *testing.T) {
	input := `<rss><item><title>Ni&nbsp;&amp;&nbsp;Co project &ndash; update</title></item></rss>`

	ch, errCh := StreamXML[testEntry](context.Background(), strings.NewReader(input), "item")
	items := drain(t, ch, errCh)

	require.Len(t, items, 1)
	assert.Contains(t, items[0].Title, "&")
	assert.Contains(t, items[0].Title, "–")
}

func TestStreamXML_Charset(t *testing.T) {
	input := "<?xml version=\"1.0\" encoding=\"ISO-8859-1\"?><rss><item><title>Mina de cobre en Per\xfa</title></item></rss>"

	ch, errCh := StreamXML[testEntry](context.Background(), strings.NewReader(input), "item")
	items := drain(t, ch, errCh)

	require.Len(t, items, 1)
	assert.Equal(t, "Mina de cobre en Perú", items[0].Title)
}

func TestStreamXML_EmptyInput(t *testing.T) {
	ch, errCh := StreamXML[testEntry](context.Background(), strings.NewReader(""), "item")
	assert.Empty(t, drain(t, ch, errCh))
}

func TestStreamXML_ContextCancellation(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("<rss>")
	for range 10000 {
		sb.WriteString("<item><title>x</title></item>")
	}
	sb.WriteString("</rss>")

	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond)
	defer cancel()
	time.Sleep(5 * time.Millisecond)

	ch, errCh := StreamXML[testEntry](ctx, strings.NewReader(sb.String()), "item")
	for range ch {
	}
	var gotErr error
	for err := range errCh {
		gotErr = err
	}
	require.Error(t, gotErr)
	assert.Contains(t, gotErr.Error(), "context")
}

func TestCollectXML_Max(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("<rss>")
	for range 500 {
		sb.WriteString("<item><title>x</title></item>")
	}
	sb.WriteString("</rss>")

	items, err := CollectXML[testEntry](context.Background(), strings.NewReader(sb.String()), 10, "item")
	require.NoError(t, err)
	assert.Len(t, items, 10)
}

func TestCollectXML_MalformedAfterItems(t *testing.T) {
	input := `<rss><item><title>ok</title></item><item><title>broken</ti`

	items, err := CollectXML[testEntry](context.Background(), strings.NewReader(input), 0, "item")
	require.Error(t, err)
	assert.Len(t, items, 1)
}
