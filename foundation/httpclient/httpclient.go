// Package httpclient provides basic http functions for retrieving remote files
package httpclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// RemoteFileInfo contains the version information a web server provides for a file
type RemoteFileInfo struct {
	ETag                  string
	LastModifiedTimestamp int64
	Path                  string
}

// Client retrieves remote files with a shared http.Client
type Client struct {
	http *http.Client
}

// New creates a Client whose requests time out after timeout
func New(timeout time.Duration) *Client {
	return &Client{http: &http.Client{Timeout: timeout}}
}

// GetRemoteFileInfo retrieves ETag and last modified timestamp from url using a HEAD request
func (c *Client) GetRemoteFileInfo(ctx context.Context, url string) (RemoteFileInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return RemoteFileInfo{}, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return RemoteFileInfo{}, err
	}
	_ = resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		return RemoteFileInfo{}, fmt.Errorf("HEAD %s returned %s", url, resp.Status)
	}
	return getRemoteFileInfo(url, resp), nil
}

func getRemoteFileInfo(url string, resp *http.Response) RemoteFileInfo {
	result := RemoteFileInfo{
		Path: url,
	}
	result.ETag = resp.Header.Get("ETag")

	lastModifiedString := resp.Header.Get("Last-Modified")
	if len(lastModifiedString) > 0 {
		parsedTime, err := http.ParseTime(lastModifiedString)
		if err == nil {
			result.LastModifiedTimestamp = parsedTime.Unix()
		}
	}
	return result
}

// IsDifferent compares against a previously seen version, preferring the ETag when the server sends one
func (df *RemoteFileInfo) IsDifferent(etag string, lastModifiedTimestamp int64) bool {
	if len(df.ETag) > 0 {
		return df.ETag != etag
	}
	return df.LastModifiedTimestamp != lastModifiedTimestamp
}

// DownloadedFile contains information about a file that has been downloaded to the local file system
type DownloadedFile struct {
	RemoteFileInfo RemoteFileInfo
	LocalFilePath  string
	Size           int64
	DownloadedAt   time.Time
}

// DownloadRemoteFile retrieves a file from a url to a local file destination.
// On success returns information about the file in DownloadedFile
func (c *Client) DownloadRemoteFile(ctx context.Context, destinationFileName string, url string) (*DownloadedFile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s returned %s", url, resp.Status)
	}

	out, err := os.Create(destinationFileName)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = out.Close()
	}()

	bytesWritten, err := io.Copy(out, resp.Body)
	if err != nil {
		return nil, err
	}

	return &DownloadedFile{
		RemoteFileInfo: getRemoteFileInfo(url, resp),
		LocalFilePath:  destinationFileName,
		Size:           bytesWritten,
		DownloadedAt:   time.Now(),
	}, nil
}
