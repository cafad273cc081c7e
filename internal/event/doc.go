// Package event defines the messages exchanged inside sparcli.
//
// Two kinds of events live here:
//
// Control events form the closed protocol between producers and the
// controller. They travel through a [Queue] and only the controller
// consumes them:
//   - [SampleEvent]: a producer recorded one value per variable name
//   - [ProducerStoppedEvent]: a producer finished
//   - [StopEvent]: the controller should clear the display and exit
//
// Notification events report what the controller did. They are published
// on a [Bus] for anyone who subscribes:
//   - [VariableAddedEvent], [VariableRemovedEvent]
//   - [FrameDrawnEvent]
//
// # Thread Safety
//
// [Queue.Put] and every [Bus] method are safe for concurrent use.
// [Queue.Get] must only be called by the single consumer.
package event
