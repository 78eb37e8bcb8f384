package service

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rwcarlsen/goexif/exif"

	"storyview/internal/story"
)

// ImageInfo holds metadata about an image file.
type ImageInfo struct {
	Width    int
	Height   int
	Size     int64
	ModTime  time.Time
	EXIFData map[string]string
}

// ImageService loads page images and derives captions from their metadata.
type ImageService struct{}

// NewImageService creates a new ImageService.
func NewImageService() *ImageService {
	return &ImageService{}
}

// GetEXIF extracts a few common EXIF fields from an image file.
func (is *ImageService) GetEXIF(r io.Reader) (map[string]string, error) {
	x, err := exif.Decode(r)
	if err != nil {
		return nil, nil // Not all images have EXIF
	}
	result := make(map[string]string)
	for _, field := range []exif.FieldName{
		exif.DateTime, exif.Model, exif.Make, exif.ExposureTime, exif.FNumber, exif.ISOSpeedRatings, exif.FocalLength,
	} {
		tag, err := x.Get(field)
		if err != nil || tag == nil {
			continue
		}
		if s, err := tag.StringVal(); err == nil {
			result[string(field)] = strings.TrimSpace(s)
		} else {
			result[string(field)] = tag.String()
		}
	}
	return result, nil
}

// GetImageInfo returns width, height, file size, mod time and EXIF data.
func (is *ImageService) GetImageInfo(path string) (*ImageInfo, image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to stat image file: %w", err)
	}

	exifData, _ := is.GetEXIF(f)

	if _, err = f.Seek(0, io.SeekStart); err != nil {
		return nil, nil, fmt.Errorf("failed to seek in image file: %w", err)
	}

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode image %s: %w", path, err)
	}

	bounds := img.Bounds()
	return &ImageInfo{
		Width:    bounds.Dx(),
		Height:   bounds.Dy(),
		Size:     fi.Size(),
		ModTime:  fi.ModTime(),
		EXIFData: exifData,
	}, img, nil
}

// Caption builds a caption from camera model and capture time, or returns ""
// when the image carries neither.
func (is *ImageService) Caption(info *ImageInfo) string {
	if info == nil {
		return ""
	}
	var parts []string
	if m := info.EXIFData[string(exif.Model)]; m != "" {
		parts = append(parts, m)
	}
	if dt := info.EXIFData[string(exif.DateTime)]; dt != "" {
		if t, err := time.Parse("2006:01:02 15:04:05", dt); err == nil {
			dt = t.Format("2 Jan 2006 15:04")
		}
		parts = append(parts, dt)
	}
	return strings.Join(parts, " · ")
}

// Page is the decoded content of one story page.
type Page struct {
	Image   image.Image // nil for text and video pages
	Caption string
}

// LoadPage prepares a page for display. Image pages are decoded and fall back
// to an EXIF caption; video pages only have their source checked.
func (is *ImageService) LoadPage(it story.Item) (Page, error) {
	switch c := it.Content.(type) {
	case story.Image:
		if isRemote(c.Source) {
			return Page{Caption: c.Caption}, fmt.Errorf("remote image %s is not supported", c.Source)
		}
		info, img, err := is.GetImageInfo(c.Source)
		if err != nil {
			return Page{Caption: c.Caption}, err
		}
		caption := c.Caption
		if caption == "" {
			caption = is.Caption(info)
		}
		return Page{Image: img, Caption: caption}, nil
	case story.Video:
		if !isRemote(c.Source) {
			if _, err := os.Stat(c.Source); err != nil {
				return Page{Caption: c.Caption}, fmt.Errorf("video unavailable: %w", err)
			}
		}
		return Page{Caption: c.Caption}, nil
	default:
		return Page{}, nil
	}
}
