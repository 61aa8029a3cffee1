// Package lectureinfo finds the title and summary of lecture materials.
package lectureinfo

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"

	"github.com/trezcool/studydesk/core/material"
)

const remoteTimeout = 30 * time.Second

// RemoteExtractor posts the file to an extraction service ("<baseURL>/api/lecture-info").
type RemoteExtractor struct {
	url    string
	client *http.Client
}

var _ material.InfoExtractor = (*RemoteExtractor)(nil)

func NewRemoteExtractor(baseURL string) *RemoteExtractor {
	return &RemoteExtractor{
		url:    strings.TrimRight(baseURL, "/") + "/api/lecture-info",
		client: &http.Client{Timeout: remoteTimeout},
	}
}

func (ext *RemoteExtractor) ExtractLectureInfo(ctx context.Context, name, mimeType string, content []byte) (material.LectureInfo, error) {
	body := new(bytes.Buffer)
	w := multipart.NewWriter(body)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, name))
	if mimeType != "" {
		h.Set("Content-Type", mimeType)
	}
	part, err := w.CreatePart(h)
	if err != nil {
		return material.LectureInfo{}, errors.Wrap(err, "creating form file")
	}
	if _, err = part.Write(content); err != nil {
		return material.LectureInfo{}, errors.Wrap(err, "writing form file")
	}
	if err = w.Close(); err != nil {
		return material.LectureInfo{}, errors.Wrap(err, "closing form")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ext.url, body)
	if err != nil {
		return material.LectureInfo{}, errors.Wrap(err, "creating request")
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := ext.client.Do(req)
	if err != nil {
		return material.LectureInfo{}, errors.Wrap(err, "calling extractor")
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return material.LectureInfo{}, errors.Wrap(err, "reading extractor response")
	}
	if resp.StatusCode != http.StatusOK {
		return material.LectureInfo{}, errors.Errorf("extractor error (%d): %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}
	if !gjson.ValidBytes(data) {
		return material.LectureInfo{}, errors.New("extractor returned invalid JSON")
	}

	res := gjson.ParseBytes(data)
	return material.LectureInfo{
		Title:   strings.TrimSpace(res.Get("title").String()),
		Summary: strings.TrimSpace(res.Get("summary").String()),
		Source:  material.SourceExtractor,
		Message: res.Get("message").String(),
	}, nil
}
