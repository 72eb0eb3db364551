package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	perr "reposcope/internal/platform/errors"
)

// decode reads at most limit bytes off resp and unmarshals into out, closing the body
func (c *Client) decode(resp *http.Response, path string, limit int64, out any) error {
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.log.Error().Err(cerr).Str("path", path).Msg("github close body failed")
		}
	}()
	b, err := io.ReadAll(io.LimitReader(resp.Body, limit))
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeUnavailable, "github read body failed")
	}
	if err := json.Unmarshal(b, out); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeUnknown, "github decode failed for %s", path)
	}
	return nil
}

// Viewer fetches the token's own user document (GET /user).
// Used to verify a credential before a fetch; fails Unauthorized on a bad token
func (c *Client) Viewer(ctx context.Context) (User, error) {
	resp, err := c.do(ctx, http.MethodGet, "/user")
	if err != nil {
		return User{}, err
	}
	var out User
	if err := c.decode(resp, "/user", 1<<20, &out); err != nil {
		return User{}, err
	}
	return out, nil
}

// UserByLogin fetches a user by login
func (c *Client) UserByLogin(ctx context.Context, login string) (User, error) {
	path := "/users/" + url.PathEscape(login)
	resp, err := c.do(ctx, http.MethodGet, path)
	if err != nil {
		return User{}, err
	}
	var out User
	if err := c.decode(resp, path, 1<<20, &out); err != nil {
		return User{}, err
	}
	return out, nil
}

// ListRepos drains every page of a repository listing, most recently updated
// first. visibility picks the endpoint:
//   - "public" lists the user's public owned repos (/users/{login}/repos)
//   - "private" lists the token's private owned repos (/user/repos); requires a token
func (c *Client) ListRepos(ctx context.Context, login, visibility string) ([]Repo, error) {
	var out []Repo
	for page := 1; ; page++ {
		var path string
		switch visibility {
		case "private":
			if !c.Authenticated() {
				return nil, perr.Unauthorizedf("private repository listing requires a token")
			}
			path = fmt.Sprintf("/user/repos?visibility=private&affiliation=owner&sort=updated&per_page=%d&page=%d",
				defaultPerPage, page)
		default:
			path = fmt.Sprintf("/users/%s/repos?type=owner&sort=updated&per_page=%d&page=%d",
				url.PathEscape(login), defaultPerPage, page)
		}

		resp, err := c.do(ctx, http.MethodGet, path)
		if err != nil {
			return nil, err
		}
		var batch []Repo
		if err := c.decode(resp, path, 8<<20, &batch); err != nil {
			return nil, err
		}
		out = append(out, batch...)
		if len(batch) < defaultPerPage {
			return out, nil
		}
	}
}

// RepoLanguages fetches the language byte breakdown for a repo
func (c *Client) RepoLanguages(ctx context.Context, owner, name string) (map[string]int64, error) {
	path := fmt.Sprintf("/repos/%s/%s/languages", url.PathEscape(owner), url.PathEscape(name))
	resp, err := c.do(ctx, http.MethodGet, path)
	if err != nil {
		return nil, err
	}
	var out map[string]int64
	if err := c.decode(resp, path, 1<<20, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// RepoTopics fetches the topic names set on a repo
func (c *Client) RepoTopics(ctx context.Context, owner, name string) ([]string, error) {
	path := fmt.Sprintf("/repos/%s/%s/topics", url.PathEscape(owner), url.PathEscape(name))
	resp, err := c.do(ctx, http.MethodGet, path)
	if err != nil {
		return nil, err
	}
	var out struct {
		Names []string `json:"names"`
	}
	if err := c.decode(resp, path, 1<<20, &out); err != nil {
		return nil, err
	}
	return out.Names, nil
}

// RepoContents lists the entries at path inside a repo ("" for the root).
// Listing a file path instead of a directory is the caller's mistake; GitHub
// then returns an object rather than an array and decoding fails
func (c *Client) RepoContents(ctx context.Context, owner, name, dir string) ([]ContentEntry, error) {
	p := fmt.Sprintf("/repos/%s/%s/contents/%s", url.PathEscape(owner), url.PathEscape(name), escapeRepoPath(dir))
	resp, err := c.do(ctx, http.MethodGet, p)
	if err != nil {
		return nil, err
	}
	var out []ContentEntry
	if err := c.decode(resp, p, 4<<20, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// DownloadArchive streams the zipball of a branch via codeload. The caller
// owns the returned body. No retry loop: mirroring is best-effort and large
// transfers are not worth re-driving here
func (c *Client) DownloadArchive(ctx context.Context, owner, name, branch string) (io.ReadCloser, error) {
	u := fmt.Sprintf("%s/%s/%s/zip/refs/heads/%s",
		c.opts.CodeloadURL, url.PathEscape(owner), url.PathEscape(name), escapeRepoPath(branch))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeUnknown, "archive new request failed")
	}
	req.Header.Set("User-Agent", c.opts.UserAgent)
	if c.opts.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.opts.Token)
	}
	// archives can exceed the API timeout by a lot; rely on ctx for cancellation
	cl := &http.Client{}
	resp, err := cl.Do(req)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeUnavailable, "archive download failed")
	}
	switch resp.StatusCode {
	case http.StatusOK:
		return resp.Body, nil
	case http.StatusNotFound:
		_ = drainAndClose(resp.Body)
		return nil, perr.NotFoundf("archive for %s/%s@%s not found", owner, name, branch)
	default:
		_ = drainAndClose(resp.Body)
		return nil, perr.Unavailablef("archive download status %d", resp.StatusCode)
	}
}

// escapeRepoPath escapes each segment of a slash-separated repo path
func escapeRepoPath(p string) string {
	if p == "" {
		return ""
	}
	segs := strings.Split(p, "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	return strings.Join(segs, "/")
}
