package sdk

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"strings"

	"github.com/cloudwego/hertz/pkg/protocol"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
)

// MaxAttachmentBytes is the server-side upload ceiling. The SDK rejects
// oversized payloads before any bytes leave the process.
const MaxAttachmentBytes = 10 << 20

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// UploadAttachment uploads a blob scoped to a conversation and returns
// the descriptor to reference from a send request.
func (c *Client) UploadAttachment(ctx context.Context, counterpartId, filename, mimeType string, data []byte) (*AttachmentInfo, error) {
	if filename == "" || len(data) == 0 {
		return nil, ErrInvalidParam
	}
	if int64(len(data)) > MaxAttachmentBytes {
		return nil, ErrPayloadTooLarge
	}
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	if counterpartId != "" {
		if err := writer.WriteField("counterpart_id", counterpartId); err != nil {
			return nil, fmt.Errorf("failed to build form: %w", err)
		}
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="file"; filename="%s"`, quoteEscaper.Replace(filename)))
	header.Set("Content-Type", mimeType)
	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("failed to build form: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("failed to build form: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to build form: %w", err)
	}

	req := &protocol.Request{}
	req.SetMethod(consts.MethodPost)
	req.SetRequestURI(c.baseURL + "/api/attachments")
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.SetBody(buf.Bytes())

	var result AttachmentInfo
	if err := c.do(ctx, req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// SignAttachmentURL mints a fresh signed URL for a blob path. Realtime
// frames carry attachments without URLs; this fills the gap.
func (c *Client) SignAttachmentURL(ctx context.Context, path string) (string, error) {
	params := map[string]string{"path": path}
	var result SignURLResponse
	if err := c.get(ctx, "/api/attachments/sign", params, &result); err != nil {
		return "", err
	}
	return result.URL, nil
}

// DownloadAttachment fetches a blob through its signed URL.
func (c *Client) DownloadAttachment(ctx context.Context, signedURL string) ([]byte, string, error) {
	req := &protocol.Request{}
	resp := &protocol.Response{}

	req.SetMethod(consts.MethodGet)
	req.SetRequestURI(signedURL)

	if err := c.httpClient.Do(ctx, req, resp); err != nil {
		return nil, "", fmt.Errorf("failed to send request: %w", err)
	}
	if resp.StatusCode() != consts.StatusOK {
		return nil, "", NewError(CodeBlobNotFound, fmt.Sprintf("download failed: status %d", resp.StatusCode()))
	}

	body := resp.Body()
	data := make([]byte, len(body))
	copy(data, body)
	return data, string(resp.Header.ContentType()), nil
}
