package main

import (
	"fmt"

	// Packages
	uuid "github.com/google/uuid"
	httpclient "github.com/mutablelogic/go-requeue/pkg/httpclient"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

type JobCommands struct {
	Jobs     ListJobsCommand    `cmd:"" name:"jobs" help:"List jobs with optional filters." group:"JOB"`
	Job      GetJobCommand      `cmd:"" name:"job" help:"Get job." group:"JOB"`
	Response GetResponseCommand `cmd:"" name:"response" help:"Get the accepted response of a completed job." group:"JOB"`
}

type ListJobsCommand struct {
	Channel string  `name:"channel" help:"Filter by channel name"`
	Status  string  `name:"status" help:"Filter by status (new, delayed, retained, retry, completed, failed, expired)"`
	Offset  uint64  `name:"offset" help:"Pagination offset"`
	Limit   *uint64 `name:"limit" help:"Pagination limit"`
}

type GetJobCommand struct {
	Id uuid.UUID `arg:"" name:"id" help:"Job identifier"`
}

type GetResponseCommand struct {
	Id uuid.UUID `arg:"" name:"id" help:"Job identifier"`
}

///////////////////////////////////////////////////////////////////////////////
// COMMANDS

func (cmd *ListJobsCommand) Run(ctx *Globals) error {
	client, err := ctx.Client()
	if err != nil {
		return err
	}

	// List jobs
	jobs, err := client.ListJobs(ctx.ctx,
		httpclient.WithChannel(cmd.Channel),
		httpclient.WithStatus(cmd.Status),
		httpclient.WithOffsetLimit(cmd.Offset, cmd.Limit),
	)
	if err != nil {
		return err
	}

	// Print
	fmt.Println(jobs)
	return nil
}

func (cmd *GetJobCommand) Run(ctx *Globals) error {
	client, err := ctx.Client()
	if err != nil {
		return err
	}

	// Get job
	job, err := client.GetJob(ctx.ctx, cmd.Id)
	if err != nil {
		return err
	}

	// Print
	fmt.Println(job)
	return nil
}

func (cmd *GetResponseCommand) Run(ctx *Globals) error {
	client, err := ctx.Client()
	if err != nil {
		return err
	}

	// Get response
	resp, err := client.GetResponse(ctx.ctx, cmd.Id)
	if err != nil {
		return err
	}

	// Print
	printResponse(resp)
	return nil
}
