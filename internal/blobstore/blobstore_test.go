package blobstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPublicURL(t *testing.T) {
	s := &Store{publicBaseURL: "https://cdn.example.com"}

	testCases := []struct {
		name string
		key  string
		want string
	}{
		{name: "plain key", key: "banners/abc.jpg", want: "https://cdn.example.com/banners/abc.jpg"},
		{name: "leading slash", key: "/banners/abc.jpg", want: "https://cdn.example.com/banners/abc.jpg"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, s.PublicURL(tc.key))
		})
	}
}
