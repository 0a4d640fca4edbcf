// {{{ Copyright (c) Upipe Authors, 2024
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE. }}}

package upipe

import "net/url"

// URI holds the GET_URI/SET_URI state a source or sink pipe exposes. The
// original's uuri is a hand-rolled RFC 3986 parser; net/url already covers
// the same grammar, so this is a thin wrapper rather than a port.
type URI struct {
	raw    string
	parsed *url.URL
}

// ParseURI parses raw, returning ErrInvalid if it isn't a valid URI.
func ParseURI(raw string) (*URI, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, ErrInvalid
	}
	return &URI{raw: raw, parsed: u}, nil
}

// String returns the original URI text passed to ParseURI.
func (u *URI) String() string { return u.raw }

// Scheme returns the URI's scheme (e.g. "file", "http").
func (u *URI) Scheme() string { return u.parsed.Scheme }

// Path returns the URI's path component.
func (u *URI) Path() string { return u.parsed.Path }

// Query returns the parsed query parameters.
func (u *URI) Query() url.Values { return u.parsed.Query() }
