package assist

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/estimator/internal/shared"
)

type fakeDescriber struct {
	text string
	err  error
	seen string
}

func (f *fakeDescriber) Describe(_ context.Context, keywords string) (string, error) {
	f.seen = keywords
	return f.text, f.err
}

type fakeImager struct {
	img Image
	err error
}

func (f fakeImager) Generate(context.Context, string) (Image, error) { return f.img, f.err }

type fakeStore struct {
	stored []Image
	err    error
}

func (f *fakeStore) Put(_ context.Context, img Image) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.stored = append(f.stored, img)
	return "https://cdn.example.com/items/1.png", nil
}

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestDescribe(t *testing.T) {
	d := &fakeDescriber{text: "  Full site audit and redesign plan.\n"}
	svc := NewService(d, nil, nil, quiet)

	text, err := svc.Describe(context.Background(), " web design, audit ")
	require.NoError(t, err)
	assert.Equal(t, "Full site audit and redesign plan.", text)
	assert.Equal(t, "web design, audit", d.seen)

	_, err = svc.Describe(context.Background(), "   ")
	var verr *shared.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Keywords are required.", verr.Fields["keywords"])

	d.err = errors.New("quota exceeded")
	_, err = svc.Describe(context.Background(), "x")
	assert.ErrorIs(t, err, shared.ErrAssistUnavailable)

	d.err, d.text = nil, ""
	_, err = svc.Describe(context.Background(), "x")
	assert.ErrorIs(t, err, shared.ErrAssistUnavailable)
}

func TestImage(t *testing.T) {
	png := Image{Data: []byte{0x89, 'P', 'N', 'G'}, MIMEType: "image/png"}

	store := &fakeStore{}
	url, err := NewService(nil, fakeImager{img: png}, store, quiet).Image(context.Background(), "Ceramic tile")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/items/1.png", url)
	require.Len(t, store.stored, 1)

	url, err = NewService(nil, fakeImager{img: png}, nil, quiet).Image(context.Background(), "Ceramic tile")
	require.NoError(t, err)
	assert.Equal(t, "data:image/png;base64,iVBORw==", url)

	_, err = NewService(nil, fakeImager{img: png}, nil, quiet).Image(context.Background(), "")
	var verr *shared.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Item name is required to generate an image.", verr.Fields["name"])

	_, err = NewService(nil, fakeImager{}, nil, quiet).Image(context.Background(), "x")
	assert.ErrorIs(t, err, shared.ErrAssistUnavailable)

	_, err = NewService(nil, fakeImager{img: png}, &fakeStore{err: errors.New("bucket gone")}, quiet).Image(context.Background(), "x")
	assert.ErrorIs(t, err, shared.ErrAssistUnavailable)

	_, err = NewService(nil, nil, nil, quiet).Image(context.Background(), "x")
	assert.ErrorIs(t, err, shared.ErrAssistUnavailable)
}

func TestHandler(t *testing.T) {
	svc := NewService(&fakeDescriber{err: errors.New("down")}, fakeImager{img: Image{Data: []byte("x"), MIMEType: "image/jpeg"}}, nil, quiet)
	r := chi.NewRouter()
	r.Route("/api/assist", NewHandler(quiet, svc).MountRoutes)

	call := func(path, body string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body)))
		return rec
	}

	rec := call("/api/assist/description", `{"keywords":"tiles"}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	rec = call("/api/assist/description", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = call("/api/assist/image", `{"name":"Tile"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"image_url":"data:image/jpeg;base64,eA=="}`, rec.Body.String())
}

func TestImageExt(t *testing.T) {
	assert.Equal(t, ".png", imageExt("image/png"))
	assert.Equal(t, ".jpg", imageExt("image/jpeg"))
	assert.Contains(t, publicReadPolicy("items"), "arn:aws:s3:::items/*")
}
