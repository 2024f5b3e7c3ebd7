package remote

import (
	"context"
	"io"
	"net/http"
	"net/url"

	"github.com/Phoenix-070/Edutranscribe/internal/models"
	"github.com/Phoenix-070/Edutranscribe/internal/utils"
)

type uploadResponse struct {
	Message     *string `json:"message"`
	PdfID       *string `json:"pdf_id"`
	PreviewText string  `json:"preview_text"`
}

// Upload is the result of registering a document; DocumentID scopes chat sessions.
type Upload struct {
	Message    string
	DocumentID string
	Preview    string
}

func (c *Client) UploadDocument(ctx context.Context, filename string, r io.Reader) (Upload, error) {
	const op = "Client.UploadDocument"

	body, contentType, err := multipartBody("file", filename, r)
	if err != nil {
		return Upload{}, utils.E(utils.CodeInternal, op, "failed to encode upload", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/upload_paper", body)
	if err != nil {
		return Upload{}, utils.E(utils.CodeInternal, op, "failed to build request", err)
	}
	req.Header.Set("Content-Type", contentType)

	var resp uploadResponse
	if err := c.doJSON(op, req, &resp); err != nil {
		return Upload{}, err
	}
	if resp.PdfID == nil || *resp.PdfID == "" {
		return Upload{}, missing(op, "pdf_id")
	}
	out := Upload{DocumentID: *resp.PdfID, Preview: resp.PreviewText}
	if resp.Message != nil {
		out.Message = *resp.Message
	}
	return out, nil
}

type Document struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
}

type listDocumentsResponse struct {
	Papers *[]Document `json:"papers"`
}

func (c *Client) ListDocuments(ctx context.Context) ([]Document, error) {
	const op = "Client.ListDocuments"

	var resp listDocumentsResponse
	if err := c.getJSON(ctx, op, "/list_uploaded_papers", nil, &resp); err != nil {
		return nil, err
	}
	if resp.Papers == nil {
		return nil, missing(op, "papers")
	}
	return *resp.Papers, nil
}

func (c *Client) DocumentSummary(ctx context.Context, documentID string) (string, error) {
	const op = "Client.DocumentSummary"

	var resp summaryResponse
	if err := c.getJSON(ctx, op, "/paper-summary", url.Values{"pdf_id": {documentID}}, &resp); err != nil {
		return "", err
	}
	if resp.Summary == nil {
		return "", missing(op, "summary")
	}
	return *resp.Summary, nil
}

type askRequest struct {
	Question string `json:"question"`
	PdfID    string `json:"pdf_id"`
}

type askResponse struct {
	Answer  *string           `json:"answer"`
	History []models.Exchange `json:"history"`
}

func (c *Client) Ask(ctx context.Context, documentID, question string) (string, error) {
	const op = "Client.Ask"

	var resp askResponse
	if err := c.postJSON(ctx, op, "/ask_question", askRequest{Question: question, PdfID: documentID}, &resp); err != nil {
		return "", err
	}
	if resp.Answer == nil {
		return "", missing(op, "answer")
	}
	return *resp.Answer, nil
}

type historyResponse struct {
	History *[]models.Exchange `json:"history"`
}

func (c *Client) History(ctx context.Context, documentID string) ([]models.Exchange, error) {
	const op = "Client.History"

	var resp historyResponse
	if err := c.getJSON(ctx, op, "/chat_history/"+url.PathEscape(documentID), nil, &resp); err != nil {
		return nil, err
	}
	if resp.History == nil {
		return nil, missing(op, "history")
	}
	return *resp.History, nil
}
