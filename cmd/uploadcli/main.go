package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"bot-file-system/controller/handler"

	"github.com/imroc/req"
	"github.com/schollz/progressbar/v3"
	"github.com/tidwall/gjson"
)

var (
	server    string
	owner     string
	filePath  string
	sessionID string
	mimeType  string
	timeout   time.Duration
)

func init() {
	flag.StringVar(&server, "server", "http://localhost:7282/api/v1", "Uploader API base URL")
	flag.StringVar(&owner, "owner", "", "Owner ID sent in the "+handler.OwnerHeader+" header")
	flag.StringVar(&filePath, "file", "", "File to upload")
	flag.StringVar(&sessionID, "session", "", "Resume an existing upload session")
	flag.StringVar(&mimeType, "mime", "", "Mime type, guessed from the extension when empty")
	flag.DurationVar(&timeout, "timeout", 10*time.Minute, "Per request timeout")
}

// session the part of the session status the client needs to resume
type session struct {
	SessionId     string `json:"sessionId"`
	ChunkSize     int64  `json:"chunkSize"`
	TotalChunks   int    `json:"totalChunks"`
	MissingChunks []int  `json:"missingChunks"`
}

type client struct {
	r       *req.Req
	baseURL string
	header  req.Header
}

func newClient() *client {
	r := req.New()
	r.SetTimeout(timeout)
	return &client{
		r:       r,
		baseURL: strings.TrimRight(server, "/"),
		header:  req.Header{handler.OwnerHeader: owner},
	}
}

// data unwrap the response envelope, non-zero code is an error
func data(resp *req.Resp, err error) (gjson.Result, error) {
	if err != nil {
		return gjson.Result{}, err
	}
	body, err := resp.ToBytes()
	if err != nil {
		return gjson.Result{}, err
	}
	if !gjson.ValidBytes(body) {
		return gjson.Result{}, fmt.Errorf("http %d: %s", resp.Response().StatusCode, body)
	}
	if code := gjson.GetBytes(body, "code").Int(); code != 0 {
		return gjson.Result{}, fmt.Errorf("http %d, code %d: %s",
			resp.Response().StatusCode, code, gjson.GetBytes(body, "message").String())
	}
	return gjson.GetBytes(body, "data"), nil
}

func (c *client) initSession(name string, size int64) (*session, error) {
	body := map[string]interface{}{
		"fileName": name,
		"fileSize": size,
		"mimeType": mimeType,
	}
	result, err := data(c.r.Post(c.baseURL+"/files/sessions", c.header, req.BodyJSON(body)))
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	s := &session{}
	if err := json.Unmarshal([]byte(result.Raw), s); err != nil {
		return nil, err
	}
	s.MissingChunks = make([]int, s.TotalChunks)
	for i := range s.MissingChunks {
		s.MissingChunks[i] = i
	}
	return s, nil
}

func (c *client) sessionStatus(id string) (*session, error) {
	result, err := data(c.r.Get(c.baseURL+"/files/sessions/"+id, c.header))
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	s := &session{}
	if err := json.Unmarshal([]byte(result.Raw), s); err != nil {
		return nil, err
	}
	return s, nil
}

func (c *client) putChunk(id string, index int, chunk []byte) error {
	header := req.Header{handler.OwnerHeader: owner, "Content-Type": "application/octet-stream"}
	_, err := data(c.r.Put(fmt.Sprintf("%s/files/sessions/%s/chunks/%d", c.baseURL, id, index), header, chunk))
	return err
}

func (c *client) complete(id string) (gjson.Result, error) {
	return data(c.r.Post(c.baseURL+"/files/sessions/"+id+"/complete", c.header))
}

// chunkLength bytes of chunk index in a file of the given size
func chunkLength(size, chunkSize int64, index int) int64 {
	start := int64(index) * chunkSize
	if end := start + chunkSize; end < size {
		return chunkSize
	}
	return size - start
}

func main() {
	flag.Parse()
	if owner == "" || filePath == "" {
		flag.Usage()
		os.Exit(2)
	}

	f, err := os.Open(filePath)
	if err != nil {
		log.Fatalf("Failed to open file: %v", err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		log.Fatalf("Failed to stat file: %v", err)
	}
	size := info.Size()
	if mimeType == "" {
		mimeType = mime.TypeByExtension(filepath.Ext(filePath))
	}

	c := newClient()
	var s *session
	if sessionID != "" {
		s, err = c.sessionStatus(sessionID)
	} else {
		s, err = c.initSession(filepath.Base(filePath), size)
	}
	if err != nil {
		log.Fatalf("%v", err)
	}
	log.Printf("Session %s: %d chunks of %d bytes, %d to upload", s.SessionId, s.TotalChunks, s.ChunkSize, len(s.MissingChunks))

	bar := progressbar.DefaultBytes(size, "uploading")
	var pending int64
	for _, i := range s.MissingChunks {
		pending += chunkLength(size, s.ChunkSize, i)
	}
	_ = bar.Add64(size - pending)

	buf := make([]byte, s.ChunkSize)
	for _, i := range s.MissingChunks {
		n := chunkLength(size, s.ChunkSize, i)
		chunk := buf[:n]
		if _, err := f.ReadAt(chunk, int64(i)*s.ChunkSize); err != nil && err != io.EOF {
			log.Fatalf("Failed to read chunk %d: %v", i, err)
		}
		if err := c.putChunk(s.SessionId, i, chunk); err != nil {
			_ = bar.Exit()
			log.Fatalf("Chunk %d failed: %v\nResume with: -session %s", i, err, s.SessionId)
		}
		_ = bar.Add64(n)
	}
	_ = bar.Finish()

	file, err := c.complete(s.SessionId)
	if err != nil {
		log.Fatalf("Failed to complete session: %v\nResume with: -session %s", err, s.SessionId)
	}
	fmt.Printf("Uploaded %s: fileId=%s size=%d chunked=%v\n",
		filePath, file.Get("fileId").String(), file.Get("fileSize").Int(), file.Get("isChunked").Bool())
}
