package source

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Locator finds the current spreadsheet link on the registry landing page.
type Locator struct {
	client  *http.Client
	tableID string
}

// NewLocator creates a locator that looks for the first link inside the
// table with the given element id.
func NewLocator(client *http.Client, tableID string) *Locator {
	return &Locator{
		client:  client,
		tableID: tableID,
	}
}

// Locate fetches landingPageURL and returns the absolute download URL of the
// first hyperlink inside the configured table.
// The first link is authoritative; the page lists the current file first.
func (l *Locator) Locate(ctx context.Context, landingPageURL string) (string, error) {
	req, err := newGetRequest(ctx, landingPageURL)
	if err != nil {
		return "", &FetchError{URL: landingPageURL, Err: err}
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return "", &FetchError{URL: landingPageURL, Err: err}
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		return "", &FetchError{URL: landingPageURL, StatusCode: resp.StatusCode}
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", &FetchError{URL: landingPageURL, Err: fmt.Errorf("failed to parse html: %w", err)}
	}

	return l.findLink(doc, landingPageURL)
}

func (l *Locator) findLink(doc *goquery.Document, landingPageURL string) (string, error) {
	table := doc.Find("table").FilterFunction(func(_ int, s *goquery.Selection) bool {
		id, _ := s.Attr("id")
		return id == l.tableID
	}).First()
	if table.Length() == 0 {
		return "", fmt.Errorf("%w: no table with id %q", ErrLinkNotFound, l.tableID)
	}

	href, ok := table.Find("a").First().Attr("href")
	href = strings.TrimSpace(href)
	if !ok || href == "" {
		return "", fmt.Errorf("%w: table %q has no hyperlink", ErrLinkNotFound, l.tableID)
	}

	return resolveLink(landingPageURL, href)
}

// resolveLink makes href absolute relative to the landing page.
func resolveLink(base, href string) (string, error) {
	baseURL, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("%w: invalid landing page url: %v", ErrLinkNotFound, err)
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", fmt.Errorf("%w: invalid href %q: %v", ErrLinkNotFound, href, err)
	}
	return baseURL.ResolveReference(ref).String(), nil
}
