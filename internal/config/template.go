package config

// Template returns the commented default configuration file.
// Parsing it yields DefaultConfig().
func Template() string {
	return `# imecue daemon configuration (imecued)

[poll]
state_interval = "100ms"   # input-method mode and visibility check
track_interval = "10ms"    # caret/pointer position tracking, must not exceed state_interval

[mode]
backend = "fcitx5"         # "fcitx5" or "fcitx" (fcitx4)
timeout = "50ms"           # D-Bus query timeout

[caret]
enable = true              # dot next to the text caret
size = 8
color_secondary = "#FF7800A0"    # #RRGGBBAA while composing (e.g. pinyin)
color_alphabetic = "#0078FF30"   # #RRGGBBAA in plain latin input
offset_x = 0
offset_y = 0
show_alphabetic = true     # keep the dot visible in alphabetic mode

[pointer]
enable = true              # dot following the mouse pointer
size = 8
color_secondary = "#FF7800A0"
color_alphabetic = "#0078FF30"
offset_x = 2
offset_y = 18
show_alphabetic = true

[bridge]
enabled = true             # write the state file for tmux/status bars
state_file = ""            # empty = ~/.local/share/imecue/ime_state

[bridge.mqtt]
enabled = false
host = "localhost"
port = 1883
ime_topic = "ime/state"    # retained "zh"/"en"
led_topic = "claude/led"   # retained LED payload, empty disables
connect_timeout = "2s"     # one attempt at startup, no retry

[bridge.mqtt.led_secondary]
r = 255
g = 13
b = 0
pattern = "solid"
duration = 9999

[bridge.mqtt.led_alphabetic]
r = 100
g = 180
b = 255
pattern = "solid"
duration = 9999

[bridge.sound]
enabled = false
volume = 80                # 0-100
secondary = ""             # wav/ogg/mp3 played on switch to the secondary mode
alphabetic = ""            # played on switch to alphabetic mode
`
}
