package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVoteDirection_Delta(t *testing.T) {
	assert.Equal(t, int64(1), VoteUp.Delta())
	assert.Equal(t, int64(-1), VoteDown.Delta())
}
