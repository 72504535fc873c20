package pkguid

import (
	"crypto/rand"
	"math/big"
	"sync"

	"github.com/bwmarrin/snowflake"
)

// eventEpoch is 2024-01-01T00:00:00Z in milliseconds.
const eventEpoch int64 = 1704067200000

var setEpoch sync.Once

// Snowflake issues time-ordered int64 IDs. Each process picks a random node,
// so IDs from concurrent exporters writing one audit log rarely collide.
type Snowflake struct {
	node *snowflake.Node
}

func randomNodeID() (int64, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1<<snowflake.NodeBits))
	if err != nil {
		return 0, err
	}
	return n.Int64(), nil
}

func NewSnowflake() (*Snowflake, error) {
	setEpoch.Do(func() { snowflake.Epoch = eventEpoch })

	id, err := randomNodeID()
	if err != nil {
		return nil, err
	}

	node, err := snowflake.NewNode(id)
	if err != nil {
		return nil, err
	}
	return &Snowflake{node: node}, nil
}

func (s *Snowflake) Generate() int64 {
	return s.node.Generate().Int64()
}

// Strings returns a StringID issuing the same IDs in base 10.
func (s *Snowflake) Strings() StringID {
	return snowflakeString{node: s.node}
}

type snowflakeString struct {
	node *snowflake.Node
}

func (s snowflakeString) Generate() string {
	return s.node.Generate().String()
}
