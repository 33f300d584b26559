// internal/service/store/infrastructure/uuid_generator.go
package infrastructure

import "github.com/google/uuid"

// UUIDGenerator 用 UUID v4 实现 port.IDGenerator。
type UUIDGenerator struct{}

func NewUUIDGenerator() *UUIDGenerator {
	return &UUIDGenerator{}
}

func (UUIDGenerator) NewID() string {
	return uuid.New().String()
}
