package main

import (
	"fmt"

	// Packages
	httpclient "github.com/mutablelogic/go-requeue/pkg/httpclient"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

type ChannelCommands struct {
	Channels     ListChannelsCommand  `cmd:"" name:"channels" help:"List channels." group:"CHANNEL"`
	Channel      ChannelStatusCommand `cmd:"" name:"channel" help:"Count jobs on a channel by status." group:"CHANNEL"`
	ClearChannel ClearChannelCommand  `cmd:"" name:"clear" help:"Remove pending jobs from a channel." group:"CHANNEL"`
}

type ListChannelsCommand struct {
	Offset uint64  `name:"offset" help:"Offset for pagination"`
	Limit  *uint64 `name:"limit" help:"Limit for pagination"`
}

type ChannelStatusCommand struct {
	Name string `arg:"" name:"name" help:"Channel name"`
}

type ClearChannelCommand struct {
	Name string `arg:"" name:"name" help:"Channel name"`
}

///////////////////////////////////////////////////////////////////////////////
// COMMANDS

func (cmd *ListChannelsCommand) Run(ctx *Globals) error {
	client, err := ctx.Client()
	if err != nil {
		return err
	}

	// List channels
	channels, err := client.ListChannels(ctx.ctx, httpclient.WithOffsetLimit(cmd.Offset, cmd.Limit))
	if err != nil {
		return err
	}

	// Print
	fmt.Println(channels)
	return nil
}

func (cmd *ChannelStatusCommand) Run(ctx *Globals) error {
	client, err := ctx.Client()
	if err != nil {
		return err
	}

	// Count jobs
	statuses, err := client.ChannelStatus(ctx.ctx, cmd.Name)
	if err != nil {
		return err
	}

	// Print
	for _, status := range statuses {
		fmt.Println(status)
	}
	return nil
}

func (cmd *ClearChannelCommand) Run(ctx *Globals) error {
	client, err := ctx.Client()
	if err != nil {
		return err
	}

	// Remove pending jobs
	jobs, err := client.ClearChannel(ctx.ctx, cmd.Name)
	if err != nil {
		return err
	}

	// Print
	fmt.Printf("removed %d job(s) from %q\n", len(jobs), cmd.Name)
	for _, job := range jobs {
		fmt.Println(job)
	}
	return nil
}
