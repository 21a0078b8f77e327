package draftcli

import (
	"encoding/binary"
	"fmt"
	"io"
	"net"

	"github.com/draftsync/draftsync/common"
)

// Wire framing: a 4-byte little-endian payload length followed by that
// many bytes of JSON. Both directions refuse frames over
// common.MaxMessageSize, so a corrupt length prefix never turns into a
// giant allocation.

func writeFrame(conn net.Conn, payload []byte) error {
	if len(payload) > common.MaxMessageSize {
		return fmt.Errorf("frame of %d bytes exceeds the %d byte limit", len(payload), common.MaxMessageSize)
	}
	var head [4]byte
	binary.LittleEndian.PutUint32(head[:], uint32(len(payload)))
	if _, err := conn.Write(head[:]); err != nil {
		return err
	}
	_, err := conn.Write(payload)
	return err
}

func readFrame(conn net.Conn) ([]byte, error) {
	var head [4]byte
	if _, err := io.ReadFull(conn, head[:]); err != nil {
		return nil, err
	}
	size := binary.LittleEndian.Uint32(head[:])
	if size > common.MaxMessageSize {
		return nil, fmt.Errorf("frame of %d bytes exceeds the %d byte limit", size, common.MaxMessageSize)
	}
	payload := make([]byte, size)
	if _, err := io.ReadFull(conn, payload); err != nil {
		return nil, err
	}
	return payload, nil
}
