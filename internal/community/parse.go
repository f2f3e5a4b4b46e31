package community

import (
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/cesargomez89/shelfwise/internal/constants"
	"github.com/cesargomez89/shelfwise/internal/domain"
	"github.com/cesargomez89/shelfwise/internal/textutil"
)

// Quote is one parsed entry of a subject's quote listing.
type Quote struct {
	Text   string
	Source string
}

// Remark is one parsed entry of a subject's comment listing. Title carries
// the attribution, with an upvote suffix such as "alice (+12)".
type Remark struct {
	Content string
	Title   string
}

var (
	authorHrefPattern = regexp.MustCompile(`/author/(\d+)`)
	digitsPattern     = regexp.MustCompile(`\d+`)
)

// Selectors are tried in order; the first one that matches anything wins.
var (
	quoteItemSelectors   = []string{".blockquote-list > li", "ul.blockquote-list li", ".quote-item"}
	remarkItemSelectors  = []string{".comment-item", "#comments li.comment-item", ".review-item"}
	remarkBodySelectors  = []string{".comment-content .short", ".comment-content", "p.comment-content", ".short-content"}
	remarkNameSelectors  = []string{".comment-info > a", ".comment-info a", ".author a", "header a.name"}
	remarkVoteSelectors  = []string{".vote-count", ".votes", ".comment-vote .count"}
	authorLinkSelectors  = []string{"#info a[href*='/author/']", "a[href*='/author/']"}
	profileBioSelectors  = []string{"#intro .all", "#intro .bd", ".author-intro", ".intro"}
	profileWorkSelectors = []string{".subject-list .title a", "#book_rec dd a", ".works li .title", ".works li a"}
)

// ParseQuotes extracts the quote listing in page order.
func ParseQuotes(r io.Reader) ([]Quote, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse quote page: %w", err)
	}

	var quotes []Quote
	firstMatch(doc.Selection, quoteItemSelectors).Each(func(_ int, s *goquery.Selection) {
		body := s.Find("figure").First()
		if body.Length() == 0 {
			body = s
		}
		q := Quote{
			Text:   textutil.Clean(fragments(body, "figcaption")),
			Source: cleanSource(body.Find("figcaption").First().Text()),
		}
		if q.Text != "" {
			quotes = append(quotes, q)
		}
	})
	return quotes, nil
}

// ParseRemarks extracts the comment listing in page order.
func ParseRemarks(r io.Reader) ([]Remark, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse comment page: %w", err)
	}

	var remarks []Remark
	firstMatch(doc.Selection, remarkItemSelectors).Each(func(_ int, s *goquery.Selection) {
		content := textutil.Clean(fragments(firstMatch(s, remarkBodySelectors).First(), ""))
		if content == "" {
			return
		}
		name := textutil.Clean(firstMatch(s, remarkNameSelectors).First().Text())
		votes := parseVotes(firstMatch(s, remarkVoteSelectors).First().Text())
		remarks = append(remarks, Remark{Content: content, Title: attribution(name, votes)})
	})
	return remarks, nil
}

// ParseAuthorID scans a subject detail page for the author anchor and
// returns its numeric id, or "" when none is linked.
func ParseAuthorID(r io.Reader) (string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", fmt.Errorf("failed to parse subject page: %w", err)
	}

	var id string
	firstMatch(doc.Selection, authorLinkSelectors).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, _ := s.Attr("href")
		if m := authorHrefPattern.FindStringSubmatch(href); m != nil {
			id = m[1]
			return false
		}
		return true
	})
	return id, nil
}

// ParseAuthorProfile extracts the biography and up to NotableWorksCap titles.
func ParseAuthorProfile(r io.Reader) (domain.AuthorProfile, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return domain.AuthorProfile{}, fmt.Errorf("failed to parse author page: %w", err)
	}

	var profile domain.AuthorProfile
	for _, sel := range profileBioSelectors {
		if bio := textutil.Clean(fragments(doc.Find(sel).First(), "")); bio != "" {
			profile.Summary = bio
			break
		}
	}

	var works []string
	firstMatch(doc.Selection, profileWorkSelectors).Each(func(_ int, s *goquery.Selection) {
		if title := textutil.Clean(s.Text()); title != "" {
			works = append(works, title)
		}
	})
	works = textutil.Dedupe(works, func(s string) string { return s })
	if len(works) > constants.NotableWorksCap {
		works = works[:constants.NotableWorksCap]
	}
	profile.NotableWorks = strings.Join(works, ", ")
	return profile, nil
}

func firstMatch(root *goquery.Selection, selectors []string) *goquery.Selection {
	for _, sel := range selectors {
		if found := root.Find(sel); found.Length() > 0 {
			return found
		}
	}
	return root.Find("__none__")
}

// fragments joins the text-bearing descendants of s with spaces, skipping
// script and style blocks and any element matching skip.
func fragments(s *goquery.Selection, skip string) string {
	var parts []string
	var walk func(*goquery.Selection)
	walk = func(sel *goquery.Selection) {
		sel.Contents().Each(func(_ int, c *goquery.Selection) {
			node := c.Get(0)
			switch node.Type {
			case html.TextNode:
				if t := strings.TrimSpace(node.Data); t != "" {
					parts = append(parts, t)
				}
			case html.ElementNode:
				if node.Data == "script" || node.Data == "style" {
					return
				}
				if skip != "" && c.Is(skip) {
					return
				}
				if node.Data == "br" {
					parts = append(parts, "\n")
					return
				}
				walk(c)
			}
		})
	}
	walk(s)
	return strings.Join(parts, " ")
}

func cleanSource(s string) string {
	s = textutil.Clean(s)
	s = strings.TrimLeft(s, "-—–― ")
	return strings.TrimSpace(s)
}

func parseVotes(s string) int {
	m := digitsPattern.FindString(s)
	if m == "" {
		return 0
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0
	}
	return n
}

func attribution(name string, votes int) string {
	if votes <= 0 {
		return name
	}
	if name == "" {
		return fmt.Sprintf("(+%d)", votes)
	}
	return fmt.Sprintf("%s (+%d)", name, votes)
}
