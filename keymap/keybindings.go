package keymap

// Mode selects which keybinding layer(s) apply to a lookup.
type Mode int

const (
	// ModeChannel resolves channel bindings first, falling back to global.
	ModeChannel Mode = iota
	// ModeRemoteControl resolves only global bindings.
	ModeRemoteControl
)

// Keybindings holds the two keybinding layers and a derived reverse
// action->key map for help/keybinding-panel rendering.
type Keybindings struct {
	global  map[Key][]string
	channel map[Key][]string
}

// New builds an empty Keybindings.
func New() *Keybindings {
	return &Keybindings{
		global:  make(map[Key][]string),
		channel: make(map[Key][]string),
	}
}

// BindGlobal registers actions for key in the global layer, applied in all
// modes.
func (k *Keybindings) BindGlobal(key Key, actions []string) { k.global[key] = actions }

// BindChannel registers actions for key in the channel layer, applied only
// in Channel mode.
func (k *Keybindings) BindChannel(key Key, actions []string) { k.channel[key] = actions }

// Resolve returns the ordered actions bound to key under mode. In
// ModeChannel, a channel binding takes precedence over a global one for
// the same key; in ModeRemoteControl only global bindings apply.
func (k *Keybindings) Resolve(key Key, mode Mode) []string {
	if mode == ModeChannel {
		if actions, ok := k.channel[key]; ok {
			return actions
		}
	}
	return k.global[key]
}

// MergeGlobalsWith adds every (key, actions) pair from other into the
// global layer that is not already present, without overwriting an
// existing global binding — the per-prototype keybindings layered on top
// of a persistent base configuration never shadow the base's own choices.
func (k *Keybindings) MergeGlobalsWith(other map[Key][]string) {
	for key, actions := range other {
		if _, exists := k.global[key]; exists {
			continue
		}
		k.global[key] = actions
	}
}

// SetChannelBindings replaces the channel layer wholesale, used when
// switching to a new Channel with its own [keybindings] table.
func (k *Keybindings) SetChannelBindings(bindings map[Key][]string) {
	k.channel = bindings
	if k.channel == nil {
		k.channel = make(map[Key][]string)
	}
}

// ReverseActionKey returns, for every bound action across both layers, a
// key that triggers it; a channel binding takes precedence over a global
// one for the same action name. Used by the help and keybinding-panel
// views. When several keys in the same layer bind one action, which of
// them is returned depends on map iteration order.
func (k *Keybindings) ReverseActionKey() map[string]Key {
	rev := make(map[string]Key)
	for key, actions := range k.global {
		for _, a := range actions {
			if _, ok := rev[a]; !ok {
				rev[a] = key
			}
		}
	}
	for key, actions := range k.channel {
		for _, a := range actions {
			rev[a] = key
		}
	}
	return rev
}
