package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
)

const (
	ResourceUsers    = "users"
	ResourceContents = "contents"
	ResourceForms    = "forms"
	ResourceMedias   = "medias"
	ResourceSEOs     = "seos"
)

// dependents lists resources whose cached reads embed records of the key.
var dependents = map[string][]string{
	ResourceSEOs:   {ResourceContents},
	ResourceMedias: {ResourceContents},
	ResourceUsers:  {ResourceMedias},
}

// invalidate drops resource and everything that embeds it.
func (c *Client) invalidate(resource string) {
	c.cache.Invalidate(append([]string{resource}, dependents[resource]...)...)
}

// Query holds filters and ?expand for list and get calls.
type Query = url.Values

// Collection is the typed CRUD surface of one resource.
type Collection[T any] struct {
	c         *Client
	resource  string
	// inserted before "/<id>" on single-record reads
	getPrefix string
}

func (r *Collection[T]) path(suffix string) string {
	return apiPrefix + "/" + r.resource + suffix
}

func encodeQuery(q Query) string {
	if len(q) == 0 {
		return ""
	}
	return "?" + q.Encode()
}

// List returns every record matching q. Results are cached per query.
func (r *Collection[T]) List(ctx context.Context, q Query) ([]T, error) {
	params := encodeQuery(q)
	return cachedFetch(r.c.cache, r.resource, "list"+params, func() ([]T, error) {
		var out []T
		if _, err := r.c.call(ctx, http.MethodGet, r.path("")+params, nil, &out); err != nil {
			return nil, err
		}
		return out, nil
	})
}

// Get returns one record. Results are cached per id and query.
func (r *Collection[T]) Get(ctx context.Context, id uint, q Query) (*T, error) {
	params := encodeQuery(q)
	return cachedFetch(r.c.cache, r.resource, fmt.Sprintf("id=%d%s", id, params), func() (*T, error) {
		out := new(T)
		if _, err := r.c.call(ctx, http.MethodGet, r.path(fmt.Sprintf("%s/%d", r.getPrefix, id))+params, nil, out); err != nil {
			return nil, err
		}
		return out, nil
	})
}

// Create posts body and invalidates the resource once the call has finished.
func (r *Collection[T]) Create(ctx context.Context, body any) (*T, error) {
	out := new(T)
	_, err := r.c.call(ctx, http.MethodPost, r.path(""), body, out)
	if err != nil {
		return nil, err
	}
	r.c.invalidate(r.resource)
	return out, nil
}

// Update sends a partial body; only the fields present change.
func (r *Collection[T]) Update(ctx context.Context, id uint, body any) (*T, error) {
	out := new(T)
	_, err := r.c.call(ctx, http.MethodPut, r.path(fmt.Sprintf("/%d", id)), body, out)
	if err != nil {
		return nil, err
	}
	r.c.invalidate(r.resource)
	return out, nil
}

func (r *Collection[T]) Delete(ctx context.Context, id uint) error {
	if _, err := r.c.call(ctx, http.MethodDelete, r.path(fmt.Sprintf("/%d", id)), nil, nil); err != nil {
		return err
	}
	r.c.invalidate(r.resource)
	return nil
}

func (c *Client) Users() *Collection[User] {
	return &Collection[User]{c: c, resource: ResourceUsers}
}

func (c *Client) Contents() *Collection[Content] {
	return &Collection[Content]{c: c, resource: ResourceContents}
}

func (c *Client) Forms() *Collection[Form] {
	return &Collection[Form]{c: c, resource: ResourceForms}
}

// MediaCollection adds uploads and download links to the media CRUD.
type MediaCollection struct {
	*Collection[Media]
}

func (c *Client) Medias() *MediaCollection {
	return &MediaCollection{Collection: &Collection[Media]{c: c, resource: ResourceMedias}}
}

// Upload sends r as the multipart field "file".
func (m *MediaCollection) Upload(ctx context.Context, fileName string, r io.Reader) (*Media, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", fileName)
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, fmt.Errorf("copy upload: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close multipart: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.c.baseURL+m.path("/upload"), body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	resp, err := m.c.send(req)
	if err != nil {
		return nil, err
	}

	out := new(Media)
	if _, err := decodeResponse(resp, out); err != nil {
		return nil, err
	}
	m.c.invalidate(m.resource)
	return out, nil
}

// Link returns a presigned download URL. Links are not cached.
func (m *MediaCollection) Link(ctx context.Context, id uint) (*PresignedLink, error) {
	out := new(PresignedLink)
	if _, err := m.c.call(ctx, http.MethodGet, m.path(fmt.Sprintf("/%d/link", id)), nil, out); err != nil {
		return nil, err
	}
	return out, nil
}

// SEOCollection adds upsert and lookup by canonical URL.
type SEOCollection struct {
	*Collection[SEO]
}

func (c *Client) SEOs() *SEOCollection {
	return &SEOCollection{Collection: &Collection[SEO]{c: c, resource: ResourceSEOs, getPrefix: "/id"}}
}

// Upsert creates or overwrites the record for in.CanonicalURL. created is
// true when the server answered 201.
func (s *SEOCollection) Upsert(ctx context.Context, in SEOInput) (rec *SEO, created bool, err error) {
	out := new(SEO)
	status, err := s.c.call(ctx, http.MethodPost, s.path(""), in, out)
	if err != nil {
		return nil, false, err
	}
	s.c.invalidate(s.resource)
	return out, status == http.StatusCreated, nil
}

// GetByURL uses the public lookup and is cached per URL.
func (s *SEOCollection) GetByURL(ctx context.Context, canonicalURL string) (*SEO, error) {
	return cachedFetch(s.c.cache, s.resource, "url="+canonicalURL, func() (*SEO, error) {
		out := new(SEO)
		if _, err := s.c.call(ctx, http.MethodGet, s.path("/"+url.PathEscape(canonicalURL)), nil, out); err != nil {
			return nil, err
		}
		return out, nil
	})
}
