package idgen

import (
	"datacuration/internal/domain"

	"github.com/google/uuid"
)

// UUIDGenerator 生成按时间有序的 UUIDv7
type UUIDGenerator struct{}

// NewIDGenerator 创建ID生成器
func NewIDGenerator() domain.IDGenerator {
	return UUIDGenerator{}
}

// NewID 生成新ID，v7 不可用时退回随机 UUID
func (UUIDGenerator) NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
