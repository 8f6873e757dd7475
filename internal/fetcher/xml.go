package fetcher

import (
	"context"
	"encoding/xml"
	"io"
	"slices"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/htmlindex"
)

// StreamXML decodes every element whose local name is one of names into T
// and sends it on the returned channel. Decoding is lenient: feeds in the
// wild use HTML entities and legacy charsets. Both channels
// are closed when processing completes.
func StreamXML[T any](ctx context.Context, r io.Reader, names ...string) (<-chan T, <-chan error) {
	outCh := make(chan T, 64)
	errCh := make(chan error, 1)

	go func() {
		defer close(outCh)
		defer close(errCh)

		decoder := xml.NewDecoder(r)
		decoder.Strict = false
		decoder.Entity = xml.HTMLEntity
		decoder.CharsetReader = func(charset string, input io.Reader) (io.Reader, error) {
			enc, err := htmlindex.Get(charset)
			if err != nil {
				return nil, eris.Wrapf(err, "xml: unsupported charset %q", charset)
			}
			return enc.NewDecoder().Reader(input), nil
		}

		for {
			if ctx.Err() != nil {
				errCh <- eris.Wrap(ctx.Err(), "xml: context cancelled")
				return
			}

			tok, err := decoder.Token()
			if err == io.EOF {
				return
			}
			if err != nil {
				errCh <- eris.Wrap(err, "xml: read token")
				return
			}

			se, ok := tok.(xml.StartElement)
			if !ok || !slices.Contains(names, se.Name.Local) {
				continue
			}

			var item T
			if err := decoder.DecodeElement(&item, &se); err != nil {
				errCh <- eris.Wrap(err, "xml: decode element")
				return
			}

			select {
			case outCh <- item:
			case <-ctx.Done():
				errCh <- eris.Wrap(ctx.Err(), "xml: context cancelled")
				return
			}
		}
	}()

	return outCh, errCh
}

// CollectXML drains StreamXML into a slice, stopping at max items when max
// is positive.
func CollectXML[T any](ctx context.Context, r io.Reader, max int, names ...string) ([]T, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	itemCh, errCh := StreamXML[T](ctx, r, names...)
	var items []T
	for item := range itemCh {
		items = append(items, item)
		if max > 0 && len(items) >= max {
			cancel()
			for range itemCh {
			}
			return items, nil
		}
	}
	if err := <-errCh; err != nil {
		return items, err
	}
	return items, nil
}
