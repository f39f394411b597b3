package store

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
)

// sftpStore keeps chunk records as files below a directory on a remote
// host. One connection is shared; the sftp client is safe for concurrent
// use but reconnects are serialized.
type sftpStore struct {
	sync.Mutex
	addr string
	root string
	conf *ssh.ClientConfig

	conn   *ssh.Client
	client *sftp.Client
}

func newSftpStore(uri string) (ChunkStore, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, errors.Wrapf(err, "parse %s", uri)
	}
	if u.User == nil || u.User.Username() == "" {
		return nil, errors.New("sftp: user is required")
	}
	pass, _ := u.User.Password()
	if pass == "" {
		pass = os.Getenv("SFTP_PASSWORD")
	}
	addr := u.Host
	if u.Port() == "" {
		addr += ":22"
	}
	s := &sftpStore{
		addr: addr,
		root: path.Clean("/" + u.Path),
		conf: &ssh.ClientConfig{
			User:            u.User.Username(),
			Auth:            []ssh.AuthMethod{ssh.Password(pass)},
			HostKeyCallback: ssh.InsecureIgnoreHostKey(),
			Timeout:         time.Second * 10,
		},
	}
	if _, err = s.getClient(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *sftpStore) getClient() (*sftp.Client, error) {
	s.Lock()
	defer s.Unlock()
	if s.client != nil {
		return s.client, nil
	}
	conn, err := ssh.Dial("tcp", s.addr, s.conf)
	if err != nil {
		return nil, errors.Wrapf(err, "dial %s", s.addr)
	}
	client, err := sftp.NewClient(conn)
	if err != nil {
		_ = conn.Close()
		return nil, errors.Wrap(err, "new sftp client")
	}
	s.conn = conn
	s.client = client
	return client, nil
}

func (s *sftpStore) invalidate() {
	s.Lock()
	defer s.Unlock()
	if s.client != nil {
		logger.Debugf("dropping sftp connection to %s", s.addr)
		_ = s.client.Close()
		_ = s.conn.Close()
		s.client = nil
		s.conn = nil
	}
}

func (s *sftpStore) path(key string) string {
	return path.Join(s.root, key)
}

func (s *sftpStore) Get(key string) ([]byte, error) {
	c, err := s.getClient()
	if err != nil {
		return nil, err
	}
	f, err := c.Open(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotExist
		}
		s.invalidate()
		return nil, err
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (s *sftpStore) Put(key string, data []byte) error {
	c, err := s.getClient()
	if err != nil {
		return err
	}
	p := s.path(key)
	if err = c.MkdirAll(path.Dir(p)); err != nil {
		return errors.Wrapf(err, "mkdir %s", path.Dir(p))
	}
	tmp := p + ".tmp"
	f, err := c.Create(tmp)
	if err != nil {
		s.invalidate()
		return err
	}
	if _, err = f.Write(data); err != nil {
		_ = f.Close()
		_ = c.Remove(tmp)
		return err
	}
	if err = f.Close(); err != nil {
		_ = c.Remove(tmp)
		return err
	}
	_ = c.Remove(p)
	return c.Rename(tmp, p)
}

func (s *sftpStore) Exists(key string) bool {
	c, err := s.getClient()
	if err != nil {
		return false
	}
	st, err := c.Stat(s.path(key))
	return err == nil && st.Mode().IsRegular()
}

func (s *sftpStore) Delete(key string) error {
	c, err := s.getClient()
	if err != nil {
		return err
	}
	err = c.Remove(s.path(key))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func (s *sftpStore) List() ([]string, error) {
	c, err := s.getClient()
	if err != nil {
		return nil, err
	}
	entries, err := c.ReadDir(s.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var keys []string
	for _, e := range entries {
		if e.Mode().IsRegular() {
			keys = append(keys, e.Name())
		}
	}
	return keys, nil
}

func (s *sftpStore) String() string {
	return fmt.Sprintf("sftp://%s@%s%s", s.conf.User, s.addr, s.root)
}
