package document

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/sangkips/receiptflow-api/internal/domain/entity"
	"go.uber.org/zap"
)

// ChromeRenderer prints an HTML receipt to PDF with headless Chrome. Each
// render starts its own browser, so it needs a Chrome binary on PATH.
type ChromeRenderer struct {
	log *zap.Logger
}

func NewChromeRenderer(log *zap.Logger) *ChromeRenderer {
	return &ChromeRenderer{log: log}
}

var receiptPage = template.Must(template.New("receipt").Parse(receiptPageTemplate))

// RenderHTML executes the receipt page template.
func RenderHTML(receipt *entity.Receipt) (string, error) {
	var buf bytes.Buffer
	if err := receiptPage.Execute(&buf, newReceiptView(receipt)); err != nil {
		return "", fmt.Errorf("document: failed to render template: %w", err)
	}
	return buf.String(), nil
}

func (c *ChromeRenderer) Render(ctx context.Context, receipt *entity.Receipt) ([]byte, error) {
	body, err := RenderHTML(receipt)
	if err != nil {
		return nil, err
	}

	allocCtx, cancel := chromedp.NewExecAllocator(ctx,
		append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
		)...,
	)
	defer cancel()

	browserCtx, cancel := chromedp.NewContext(allocCtx, chromedp.WithErrorf(c.log.Sugar().Errorf))
	defer cancel()

	var pdfData []byte
	err = chromedp.Run(browserCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			frameTree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(frameTree.Frame.ID, body).Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			pdfData, _, err = page.PrintToPDF().
				WithPrintBackground(true).
				WithPreferCSSPageSize(true).
				Do(ctx)
			return err
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("document: chrome print failed: %w", err)
	}
	return pdfData, nil
}

const receiptPageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<title>Receipt {{.ReceiptNumber}}</title>
<style>
  @page { size: A4; margin: 15mm; }
  body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Arial, sans-serif; color: #1a1a2e; font-size: 13px; }
  h1 { margin: 0; font-size: 26px; }
  .subtitle { color: #5f6368; letter-spacing: 2px; margin-bottom: 18px; }
  .meta td { padding: 2px 12px 2px 0; }
  .meta td:first-child { font-weight: 600; }
  table.items { width: 100%; border-collapse: collapse; margin-top: 22px; }
  table.items th { background: #ebeef2; text-align: right; padding: 8px; }
  table.items th:first-child, table.items td:first-child { text-align: left; }
  table.items td { text-align: right; padding: 6px 8px; border-bottom: 1px solid #f0f0f0; }
  .totals { margin-top: 12px; margin-left: auto; }
  .totals td { padding: 4px 8px; text-align: right; }
  .totals tr.grand td { font-weight: 700; font-size: 15px; border-top: 2px solid #1a1a2e; }
  .footer { margin-top: 36px; text-align: center; color: #888; font-style: italic; }
</style>
</head>
<body>
  <h1>{{.BusinessStore}}</h1>
  <div class="subtitle">RECEIPT</div>
  <table class="meta">
    <tr><td>Receipt No.</td><td>{{.ReceiptNumber}}</td></tr>
    <tr><td>Order ID</td><td>{{.OrderID}}</td></tr>
    <tr><td>Date</td><td>{{.IssuedAt}}</td></tr>
    <tr><td>Billed To</td><td>{{.CustomerName}}</td></tr>
    <tr><td>Email</td><td>{{.CustomerEmail}}</td></tr>
    <tr><td>Payment</td><td>{{.PaymentMethod}}</td></tr>
  </table>
  <table class="items">
    <thead><tr><th>Product</th><th>Qty</th><th>Unit Price</th><th>Amount</th></tr></thead>
    <tbody>
    {{- range .Lines}}
      <tr><td>{{.ProductName}}</td><td>{{.Quantity}}</td><td>{{.UnitPrice}}</td><td>{{.LineTotal}}</td></tr>
    {{- end}}
    </tbody>
  </table>
  <table class="totals">
    <tr><td>Subtotal</td><td>{{.SubTotal}}</td></tr>
    <tr><td>Tax</td><td>{{.Tax}}</td></tr>
    <tr class="grand"><td>Total</td><td>{{.Total}}</td></tr>
  </table>
  <div class="footer">Thank you for your purchase with {{.BusinessStore}}.</div>
</body>
</html>
`
