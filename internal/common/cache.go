package common

import (
	"strconv"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
)

type Cache struct {
	*cache.Cache
}

func NewCache(expirationTime, cleanupTime time.Duration) *Cache {
	return &Cache{cache.New(expirationTime, cleanupTime)}
}

func (c *Cache) Set(key string, value interface{}, expiration ...time.Duration) {
	if len(expiration) > 0 {
		c.Cache.Set(key, value, expiration[0])
		return
	}
	c.Cache.Set(key, value, cache.DefaultExpiration)
}

func (c *Cache) Get(key string) (interface{}, bool) {
	return c.Cache.Get(key)
}

func (c *Cache) Delete(key string) {
	c.Cache.Delete(key)
}

func (c *Cache) Flush() {
	c.Cache.Flush()
}

// DeletePrefix drops every entry whose key starts with prefix. Used to
// invalidate paginated listing entries, which cannot be enumerated from the
// mutation side.
func (c *Cache) DeletePrefix(prefix string) {
	for key := range c.Items() {
		if strings.HasPrefix(key, prefix) {
			c.Cache.Delete(key)
		}
	}
}

// Cache keys. Blog and user identifiers are opaque strings (UUIDs), so the keys
// take them verbatim.

func CacheKeyBlog(id string) string {
	return "blog:" + id
}

func CacheKeyBlogsByUser(id string) string {
	return "blogs_by_user:" + id
}

// CacheKeyBlogsPrefix covers every paginated listing key, for bulk eviction.
const CacheKeyBlogsPrefix = "blogs:"

func CacheKeyBlogs(limit, offset int) string {
	return CacheKeyBlogsPrefix + strconv.Itoa(limit) + ":" + strconv.Itoa(offset)
}

func CacheKeyUserByAccessToken(token []byte) string {
	return "user_by_access_token:" + string(token)
}
