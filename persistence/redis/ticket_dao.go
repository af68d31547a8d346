package redis

import (
	"context"
	"errors"

	rd "github.com/go-redis/redis/v9"
	"github.com/tickd/tickd/logger"
	"github.com/tickd/tickd/model"
	"github.com/tickd/tickd/persistence"
	"github.com/tickd/tickd/util"
	"go.uber.org/zap"
)

const TICKET_KEY string = "TICKET"

var _ persistence.TicketDao = new(redisTicketDao)

type redisTicketDao struct {
	baseDao
	encoderDecoder util.EncoderDecoder[model.Ticket]
}

func NewRedisTicketDao(conf Config) *redisTicketDao {
	return &redisTicketDao{
		baseDao:        *newBaseDao(conf),
		encoderDecoder: util.NewJsonEncoderDecoder[model.Ticket](),
	}
}

func (td *redisTicketDao) Save(ticket model.Ticket) error {
	key := td.getNamespaceKey(TICKET_KEY)
	ctx := context.Background()
	data, err := td.encoderDecoder.Encode(ticket)
	if err != nil {
		return err
	}
	if err := td.redisClient.HSet(ctx, key, []string{ticket.Id, string(data)}).Err(); err != nil {
		logger.Error("error in saving ticket", zap.String("ticketId", ticket.Id), zap.Error(err))
		return persistence.StorageLayerError{Message: err.Error()}
	}
	return nil
}

func (td *redisTicketDao) Get(id string) (*model.Ticket, error) {
	key := td.getNamespaceKey(TICKET_KEY)
	ctx := context.Background()
	ticketStr, err := td.redisClient.HGet(ctx, key, id).Result()
	if err != nil {
		if errors.Is(err, rd.Nil) {
			return nil, nil
		}
		logger.Error("error in getting ticket", zap.String("ticketId", id), zap.Error(err))
		return nil, persistence.StorageLayerError{Message: err.Error()}
	}
	return td.encoderDecoder.Decode([]byte(ticketStr))
}

func (td *redisTicketDao) Update(id string, update model.TicketUpdate) error {
	ticket, err := td.Get(id)
	if err != nil {
		return err
	}
	if ticket == nil {
		return persistence.StorageLayerError{Message: "ticket not found " + id}
	}
	applyTicketUpdate(ticket, update)
	return td.Save(*ticket)
}

func applyTicketUpdate(ticket *model.Ticket, update model.TicketUpdate) {
	if update.Status != nil {
		ticket.Status = *update.Status
	}
	if update.Priority != nil {
		ticket.Priority = *update.Priority
	}
	if update.HelpfulNotes != nil {
		ticket.HelpfulNotes = *update.HelpfulNotes
	}
	if update.RelatedSkills != nil {
		ticket.RelatedSkills = *update.RelatedSkills
	}
	if update.AssignedTo != nil {
		ticket.AssignedTo = *update.AssignedTo
	}
}
