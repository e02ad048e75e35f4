package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseDateKey(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want DateKey
		ok   bool
	}{
		{
			name: "post url with date",
			url:  "https://abicom.com.br/ppi/ppi-05-03-2024/",
			want: DateKey{Day: "05", Month: "03", Year: "2024"},
			ok:   true,
		},
		{
			name: "date embedded mid-path",
			url:  "https://abicom.com.br/ppi/ppi-31-12-2023/index.html",
			want: DateKey{Day: "31", Month: "12", Year: "2023"},
			ok:   true,
		},
		{
			name: "no date",
			url:  "https://abicom.com.br/ppi/relatorio-anual/",
			ok:   false,
		},
		{
			name: "partial date",
			url:  "https://abicom.com.br/ppi/ppi-05-2024/",
			ok:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseDateKey(tt.url)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestDateKeyNaming(t *testing.T) {
	key := DateKey{Day: "05", Month: "03", Year: "2024"}
	assert.Equal(t, "03-2024", key.Bucket())
	assert.Equal(t, "ppi-05-03-2024.jpg", key.Filename(".jpg"))
}

func TestDateKeyFromTime(t *testing.T) {
	ts := time.Date(2024, time.March, 5, 12, 0, 0, 0, time.UTC)
	key := DateKeyFromTime(ts)
	assert.Equal(t, DateKey{Day: "05", Month: "03", Year: "2024"}, key)
}

func TestSlugFromURL(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://abicom.com.br/ppi/ppi-05-03-2024/", "ppi-05-03-2024"},
		{"https://abicom.com.br/posts/daily-update/", "ppi-daily-update"},
		{"https://abicom.com.br/posts/update.html", "ppi-update"},
		{"https://abicom.com.br/", "ppi-post"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, SlugFromURL(tt.url), "url %s", tt.url)
	}
}

func TestImageSaved(t *testing.T) {
	img := NewImage("https://abicom.com.br/wp/table.jpg", "https://abicom.com.br/ppi/ppi-05-03-2024/", ".jpg")
	assert.False(t, img.IsSaved())
	img.SavedPath = "/tmp/03-2024/ppi-05-03-2024.jpg"
	assert.True(t, img.IsSaved())
}
