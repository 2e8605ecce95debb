/*
Package event provides a type-safe pub/sub event system for the agent
runtime, decoupling the Agent Loop (C1), the file-editing tools over
the Safe File Editor (C5), and the Git Session Manager (C6) from
anything that wants to observe their lifecycle. No runtime component
subscribes at present (the introspection HTTP endpoint reads the Agent
Loop directly); the subscribers in this repository are tests.

# Architecture

The package is built on top of watermill's gochannel for infrastructure
while keeping direct-call semantics so subscribers get typed Event.Data
without a serialization round-trip.

# Event types

	task.started            a new task began in execute_task
	task.completed           execute_task returned a TaskResult
	file.edited              a Safe File Editor mutation completed
	checkpoint.created       the Git Session Manager committed a checkpoint
	session_branch.created   the process's session branch was created
	replan.triggered         the deadlock detector forced a complex-model replan

# Basic usage

	event.Publish(event.Event{
		Type: event.TaskStarted,
		Data: event.TaskStartedData{TaskID: 1, Text: "add retry logic"},
	})

	unsubscribe := event.Subscribe(event.FileEdited, func(e event.Event) {
		data := e.Data.(event.FileEditedData)
		log.Info("file edited", "path", data.Path)
	})
	defer unsubscribe()

# Subscriber safety

PublishSync calls subscribers synchronously in the publisher's
goroutine. Subscribers must complete quickly and must never call
Publish/PublishSync re-entrantly.

# Custom bus instances

	bus := event.NewBus()
	defer bus.Close()
	bus.Subscribe(event.TaskStarted, handler)
*/
package event
