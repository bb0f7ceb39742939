package common

import "testing"

func setupTestEnvironment(t *testing.T) (*Cache, func()) {
	t.Helper()

	cache := NewCache(0, 0)

	cleanup := func() {
		cache.Flush()
	}

	return cache, cleanup
}

func TestCache_Set(t *testing.T) {
	cache, cleanup := setupTestEnvironment(t)
	defer cleanup()

	cache.Set("key", "value")

	if _, ok := cache.Get("key"); !ok {
		t.Error("expected key to be set")
	}
}

func TestCache_Delete(t *testing.T) {
	cache, cleanup := setupTestEnvironment(t)
	defer cleanup()

	cache.Set("key", "value")
	cache.Delete("key")

	if _, ok := cache.Get("key"); ok {
		t.Error("expected key to be deleted")
	}
}

func TestCache_Flush(t *testing.T) {
	cache, cleanup := setupTestEnvironment(t)
	defer cleanup()

	cache.Set("key", "value")
	cache.Flush()

	if _, ok := cache.Get("key"); ok {
		t.Error("expected cache to be flushed")
	}
}

func TestCache_DeletePrefix(t *testing.T) {
	cache, cleanup := setupTestEnvironment(t)
	defer cleanup()

	cache.Set(CacheKeyBlogs(10, 0), "page1")
	cache.Set(CacheKeyBlogs(10, 10), "page2")
	cache.Set(CacheKeyBlogsByUser("4b2d"), "user listing")

	cache.DeletePrefix(CacheKeyBlogsPrefix)

	if _, ok := cache.Get(CacheKeyBlogs(10, 0)); ok {
		t.Error("expected first page to be deleted")
	}

	if _, ok := cache.Get(CacheKeyBlogs(10, 10)); ok {
		t.Error("expected second page to be deleted")
	}

	if _, ok := cache.Get(CacheKeyBlogsByUser("4b2d")); !ok {
		t.Error("expected user listing to survive")
	}
}

func TestCacheKeys(t *testing.T) {
	if got := CacheKeyBlog("4b2d"); got != "blog:4b2d" {
		t.Errorf("unexpected blog cache key: %s", got)
	}

	if got := CacheKeyBlogs(10, 20); got != "blogs:10:20" {
		t.Errorf("unexpected blogs cache key: %s", got)
	}
}
