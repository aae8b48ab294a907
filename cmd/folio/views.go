package main

import (
	"context"
	"fmt"
	"html"
	"io"

	"github.com/a-h/templ"

	"github.com/eringen/folio"
)

// defaultViews builds unstyled fallback pages so the server runs before
// any site templates exist. They render the same data the real templ
// components receive.
func defaultViews(cfg folio.SiteConfig) folio.ViewFuncs {
	return folio.ViewFuncs{
		Home: func(posts []folio.Post, siteURL string) templ.Component {
			return componentFunc(func(w io.Writer) error {
				fmt.Fprintf(w, "<!doctype html><html><head><title>%s</title></head><body><h1>%s</h1><ul>", html.EscapeString(cfg.Name), html.EscapeString(cfg.Name))
				for _, p := range posts {
					fmt.Fprintf(w, `<li><a href="%s">%s</a> — %s</li>`,
						html.EscapeString(p.Link), html.EscapeString(p.Title), html.EscapeString(p.Excerpt))
				}
				_, err := fmt.Fprint(w, "</ul></body></html>")
				return err
			})
		},
		Post: func(post folio.Post, siteURL string) templ.Component {
			return componentFunc(func(w io.Writer) error {
				fmt.Fprintf(w, "<!doctype html><html><head><title>%s</title></head><body>", html.EscapeString(post.Title))
				if post.CoverImageURL != "" {
					fmt.Fprintf(w, `<img src="%s" alt="">`, html.EscapeString(post.CoverImageURL))
				}
				_, err := fmt.Fprintf(w, "<h1>%s</h1><pre>%s</pre></body></html>",
					html.EscapeString(post.Title), html.EscapeString(post.Content))
				return err
			})
		},
		AdminLogin: func(showError bool, csrfToken string) templ.Component {
			return componentFunc(func(w io.Writer) error {
				msg := ""
				if showError {
					msg = "<p>Wrong password.</p>"
				}
				_, err := fmt.Fprintf(w, `<!doctype html><html><body>%s<form method="post" action="/admin/login/">`+
					`<input type="hidden" name="_csrf" value="%s">`+
					`<input type="password" name="password"><button>Log in</button></form></body></html>`,
					msg, html.EscapeString(csrfToken))
				return err
			})
		},
		AdminDashboard: func(posts []folio.Post, message string, csrfToken string) templ.Component {
			return componentFunc(func(w io.Writer) error {
				fmt.Fprintf(w, "<!doctype html><html><body><p>%s</p><ul>", html.EscapeString(message))
				for _, p := range posts {
					state := "draft"
					if p.Published() {
						state = "published"
					}
					fmt.Fprintf(w, "<li>%s (%s)</li>", html.EscapeString(p.Title), state)
				}
				_, err := fmt.Fprint(w, "</ul></body></html>")
				return err
			})
		},
		AdminForm: func(post folio.Post, csrfToken string) templ.Component {
			return componentFunc(func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "<!doctype html><html><body><h1>Edit %s</h1></body></html>",
					html.EscapeString(post.Title))
				return err
			})
		},
		NotFound: func() templ.Component {
			return componentFunc(func(w io.Writer) error {
				_, err := fmt.Fprint(w, "<!doctype html><html><body><h1>Not found</h1></body></html>")
				return err
			})
		},
		ServerError: func() templ.Component {
			return componentFunc(func(w io.Writer) error {
				_, err := fmt.Fprint(w, "<!doctype html><html><body><h1>Something went wrong</h1></body></html>")
				return err
			})
		},
	}
}

func componentFunc(fn func(w io.Writer) error) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return fn(w)
	})
}
