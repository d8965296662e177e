package repository

import (
	"gorm.io/gorm"
	"unity-within-go/internal/model"
)

// ChatRoomRepository 定义了聊天室数据的持久化操作。
type ChatRoomRepository interface {
	Create(room *model.ChatRoom) error
	FindByID(roomID uint) (*model.ChatRoom, error)
	FindAll() ([]model.ChatRoom, error)
	Count() (int64, error)
	Delete(roomID uint) error
}

type chatRoomRepository struct {
	db *gorm.DB
}

// NewChatRoomRepository 创建一个新的 ChatRoomRepository 实例。
func NewChatRoomRepository(db *gorm.DB) ChatRoomRepository {
	return &chatRoomRepository{db: db}
}

func (r *chatRoomRepository) Create(room *model.ChatRoom) error {
	return r.db.Create(room).Error
}

func (r *chatRoomRepository) FindByID(roomID uint) (*model.ChatRoom, error) {
	var room model.ChatRoom
	err := r.db.First(&room, roomID).Error
	if err != nil {
		return nil, err
	}
	return &room, nil
}

func (r *chatRoomRepository) FindAll() ([]model.ChatRoom, error) {
	var rooms []model.ChatRoom
	err := r.db.Order("id ASC").Find(&rooms).Error
	return rooms, err
}

func (r *chatRoomRepository) Count() (int64, error) {
	var total int64
	err := r.db.Model(&model.ChatRoom{}).Count(&total).Error
	return total, err
}

func (r *chatRoomRepository) Delete(roomID uint) error {
	return r.db.Delete(&model.ChatRoom{}, roomID).Error
}

// ChatMessageRepository 定义了聊天消息的持久化操作。
// 消息一经写入不可修改，删除仅供管理面使用。
type ChatMessageRepository interface {
	Create(msg *model.ChatMessage) error
	FindByID(msgID uint) (*model.ChatMessage, error)
	// FindByRoom 按时间倒序分页返回某房间的消息；roomID 为 nil 时查询全局树洞。
	FindByRoom(roomID *uint, offset, limit int) ([]model.ChatMessage, int64, error)
	// FindRecent 返回最新的若干条消息，供管理面总览使用。
	FindRecent(offset, limit int) ([]model.ChatMessage, int64, error)
	Count() (int64, error)
	Delete(msgID uint) error
	// SenderName 返回消息发送者的显示名，匿名消息不应调用本方法。
	SenderName(userID uint) (string, error)
}

type chatMessageRepository struct {
	db *gorm.DB
}

// NewChatMessageRepository 创建一个新的 ChatMessageRepository 实例。
func NewChatMessageRepository(db *gorm.DB) ChatMessageRepository {
	return &chatMessageRepository{db: db}
}

func (r *chatMessageRepository) Create(msg *model.ChatMessage) error {
	return r.db.Create(msg).Error
}

func (r *chatMessageRepository) FindByID(msgID uint) (*model.ChatMessage, error) {
	var msg model.ChatMessage
	err := r.db.First(&msg, msgID).Error
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

func (r *chatMessageRepository) FindByRoom(roomID *uint, offset, limit int) ([]model.ChatMessage, int64, error) {
	var messages []model.ChatMessage
	var total int64

	db := r.db.Model(&model.ChatMessage{})
	if roomID == nil {
		db = db.Where("room_id IS NULL")
	} else {
		db = db.Where("room_id = ?", *roomID)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := db.Order("created_at DESC").Offset(offset).Limit(limit).Find(&messages).Error
	if err != nil {
		return nil, 0, err
	}
	return messages, total, nil
}

func (r *chatMessageRepository) FindRecent(offset, limit int) ([]model.ChatMessage, int64, error) {
	var messages []model.ChatMessage
	var total int64

	db := r.db.Model(&model.ChatMessage{})
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := db.Order("created_at DESC").Offset(offset).Limit(limit).Find(&messages).Error
	if err != nil {
		return nil, 0, err
	}
	return messages, total, nil
}

func (r *chatMessageRepository) Count() (int64, error) {
	var total int64
	err := r.db.Model(&model.ChatMessage{}).Count(&total).Error
	return total, err
}

func (r *chatMessageRepository) Delete(msgID uint) error {
	return r.db.Delete(&model.ChatMessage{}, msgID).Error
}

func (r *chatMessageRepository) SenderName(userID uint) (string, error) {
	var user model.User
	err := r.db.Select("name").First(&user, userID).Error
	if err != nil {
		return "", err
	}
	return user.Name, nil
}
