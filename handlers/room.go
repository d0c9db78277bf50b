package handlers

import (
	"context"
	"fmt"
	"strconv"

	"github.com/bwmarrin/discordgo"
)

// handleRoom, /room komut ağacını ilgili service operasyonuna yönlendirir.
//
// Ağaç:
//
//	/room create [user]
//	/room open
//	/room close
//	/room key create <user>
//	/room key revoke <user>
//	/room reset name [user]        (operatör)
//	/room reset room_id <user> <channel_id> (operatör)
func (h *Handler) handleRoom(s *discordgo.Session, i *discordgo.InteractionCreate, invoker uint64) {
	data := i.ApplicationCommandData()
	if len(data.Options) == 0 {
		return
	}

	opt := data.Options[0]

	switch opt.Name {
	case "create":
		h.handleRoomCreate(s, i, opt)
	case "open":
		h.handleRoomOpen(s, i, invoker)
	case "close":
		h.handleRoomClose(s, i, invoker)
	case "key":
		if len(opt.Options) == 0 {
			return
		}
		sub := opt.Options[0]
		switch sub.Name {
		case "create":
			h.handleKeyCreate(s, i, invoker, sub)
		case "revoke":
			h.handleKeyRevoke(s, i, invoker, sub)
		}
	case "reset":
		if len(opt.Options) == 0 {
			return
		}
		// Reset grubu operatör kapısının arkasındadır.
		if !h.cfg.IsOwner(invoker) {
			h.respond(s, i, "Only bot operators can use this command.")
			return
		}
		sub := opt.Options[0]
		switch sub.Name {
		case "name":
			h.handleResetName(s, i, sub)
		case "room_id":
			h.handleResetRoomID(s, i, sub)
		}
	}
}

// subjectOf, opsiyonel "user" argümanını çözer; verilmemişse invoker döner.
func subjectOf(s *discordgo.Session, i *discordgo.InteractionCreate, opt *discordgo.ApplicationCommandInteractionDataOption) (uint64, string, error) {
	for _, o := range opt.Options {
		if o.Name == "user" {
			user := o.UserValue(s)
			id, err := strconv.ParseUint(user.ID, 10, 64)
			if err != nil {
				return 0, "", fmt.Errorf("malformed user id %q: %w", user.ID, err)
			}
			return id, user.Username, nil
		}
	}

	invoker := i.Member.User
	id, err := strconv.ParseUint(invoker.ID, 10, 64)
	if err != nil {
		return 0, "", fmt.Errorf("malformed invoker id %q: %w", invoker.ID, err)
	}
	return id, invoker.Username, nil
}

// requiredUserOf, zorunlu "user" argümanını çözer.
func requiredUserOf(s *discordgo.Session, opt *discordgo.ApplicationCommandInteractionDataOption) (uint64, error) {
	for _, o := range opt.Options {
		if o.Name == "user" {
			user := o.UserValue(s)
			return strconv.ParseUint(user.ID, 10, 64)
		}
	}
	return 0, fmt.Errorf("missing required user option")
}

func (h *Handler) handleRoomCreate(s *discordgo.Session, i *discordgo.InteractionCreate, opt *discordgo.ApplicationCommandInteractionDataOption) {
	subjectID, username, err := subjectOf(s, i, opt)
	if err != nil {
		h.respond(s, i, renderError(err))
		return
	}

	// Saga üç REST çağrısı + bir insert yapar — defer şart.
	if !h.deferResponse(s, i) {
		return
	}

	channelID, err := h.rooms.Create(context.Background(), subjectID, username)
	if err != nil {
		h.followup(s, i, renderError(err))
		return
	}

	h.followup(s, i, fmt.Sprintf("Room has been created! <#%d>", channelID))
}

func (h *Handler) handleRoomOpen(s *discordgo.Session, i *discordgo.InteractionCreate, invoker uint64) {
	if !h.deferResponse(s, i) {
		return
	}

	if err := h.rooms.Open(context.Background(), invoker); err != nil {
		h.followup(s, i, renderError(err))
		return
	}

	h.followup(s, i, "Room has been opened!")
}

func (h *Handler) handleRoomClose(s *discordgo.Session, i *discordgo.InteractionCreate, invoker uint64) {
	if !h.deferResponse(s, i) {
		return
	}

	if err := h.rooms.Close(context.Background(), invoker); err != nil {
		h.followup(s, i, renderError(err))
		return
	}

	h.followup(s, i, "Room has been closed!")
}

func (h *Handler) handleKeyCreate(s *discordgo.Session, i *discordgo.InteractionCreate, invoker uint64, sub *discordgo.ApplicationCommandInteractionDataOption) {
	guestID, err := requiredUserOf(s, sub)
	if err != nil {
		h.respond(s, i, renderError(err))
		return
	}

	if !h.deferResponse(s, i) {
		return
	}

	if err := h.rooms.KeyCreate(context.Background(), invoker, guestID); err != nil {
		h.followup(s, i, renderError(err))
		return
	}

	h.followup(s, i, "Room access for the provided user has been granted!")
}

func (h *Handler) handleKeyRevoke(s *discordgo.Session, i *discordgo.InteractionCreate, invoker uint64, sub *discordgo.ApplicationCommandInteractionDataOption) {
	guestID, err := requiredUserOf(s, sub)
	if err != nil {
		h.respond(s, i, renderError(err))
		return
	}

	if !h.deferResponse(s, i) {
		return
	}

	if err := h.rooms.KeyRevoke(context.Background(), invoker, guestID); err != nil {
		h.followup(s, i, renderError(err))
		return
	}

	h.followup(s, i, "Room access for the provided user has been revoked!")
}

func (h *Handler) handleResetName(s *discordgo.Session, i *discordgo.InteractionCreate, sub *discordgo.ApplicationCommandInteractionDataOption) {
	subjectID, username, err := subjectOf(s, i, sub)
	if err != nil {
		h.respond(s, i, renderError(err))
		return
	}

	if !h.deferResponse(s, i) {
		return
	}

	renamed, err := h.rooms.ResetName(context.Background(), subjectID, username)
	if err != nil {
		h.followup(s, i, renderError(err))
		return
	}

	if !renamed {
		h.followup(s, i, "Room name was already correct — nothing to do.")
		return
	}

	h.followup(s, i, "Room name has been reset.")
}

func (h *Handler) handleResetRoomID(s *discordgo.Session, i *discordgo.InteractionCreate, sub *discordgo.ApplicationCommandInteractionDataOption) {
	subjectID, err := requiredUserOf(s, sub)
	if err != nil {
		h.respond(s, i, renderError(err))
		return
	}

	var rawChannelID string
	for _, o := range sub.Options {
		if o.Name == "channel_id" {
			rawChannelID = o.StringValue()
		}
	}

	channelID, err := strconv.ParseUint(rawChannelID, 10, 64)
	if err != nil {
		h.respond(s, i, fmt.Sprintf("`%s` is not a valid channel ID.", rawChannelID))
		return
	}

	if !h.deferResponse(s, i) {
		return
	}

	if err := h.rooms.ResetRoomID(context.Background(), subjectID, channelID); err != nil {
		h.followup(s, i, renderError(err))
		return
	}

	h.followup(s, i, fmt.Sprintf("Room ID for user <@%d> has been reset to %d.", subjectID, channelID))
}
