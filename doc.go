// Package magstack is a card-stack interaction engine for [Ebitengine].
//
// A [Stack] renders an ordered set of cards, each backed by an [Item] and a
// view [Node], layered by depth. The front card reacts to direct
// manipulation:
//
//   - tap toggles between [StackStacked] and [StackExpanded] layouts;
//   - drag moves the card and previews a dismissal (down) or a select
//     (right or up), pulsing [HapticFeedback] once per threshold crossing;
//   - release dismisses the card, selects it, or springs it back to rest.
//
// # Quick start
//
//	scene := magstack.NewScene()
//	stack, err := magstack.NewStack(scene, items,
//		magstack.WithHaptics(magstack.DefaultVibration),
//		magstack.WithPresenter(presenter),
//	)
//	if err != nil {
//		return err
//	}
//	stack.Populate(ctx, source, loader) // optional: fetch in the background
//	return magstack.Run(scene, magstack.RunConfig{Title: "magstack", Width: 480, Height: 800})
//
// # Components
//
// The engine splits into five parts that can also be used without a scene
// (the terminal frontend in internal/tui does so):
//
//   - [Registry] holds the ordered cards;
//   - [ComputeRestTransform] maps (index, mode, total) to a [RestTransform];
//   - [GestureInterpreter] turns pointer translation into live transforms,
//     sibling fades and feedback pulses;
//   - [CommitResolver] picks an [Outcome] when the drag ends and runs the
//     terminal animation;
//   - [ReflowCoordinator] re-indexes and re-animates cards after a removal
//     or a mode toggle.
//
// # Threading
//
// Everything in this package runs on the Ebitengine update goroutine. Work
// done elsewhere (network, image decode) must hand its results to
// [Stack.Post], which queues them for the next [Stack.Update].
//
// Tweens use [gween]; logging uses [charmbracelet/log].
//
// [Ebitengine]: https://ebitengine.org
// [gween]: https://github.com/tanema/gween
// [charmbracelet/log]: https://github.com/charmbracelet/log
package magstack
