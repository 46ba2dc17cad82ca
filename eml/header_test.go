package eml

import (
	"encoding/base64"
	"testing"
)

func TestDecodeHeader(t *testing.T) {
	gb2312Hello := base64.StdEncoding.EncodeToString([]byte{0xc4, 0xe3, 0xba, 0xc3}) // 你好

	tests := []struct {
		name  string
		value string
		want  string
	}{
		{
			name:  "absent header",
			value: "",
			want:  "",
		},
		{
			name:  "plain ascii passthrough",
			value: "Quarterly report",
			want:  "Quarterly report",
		},
		{
			name:  "q encoded latin1",
			value: "=?ISO-8859-1?Q?caf=E9?=",
			want:  "café",
		},
		{
			name:  "b encoded gb2312",
			value: "=?GB2312?B?" + gb2312Hello + "?=",
			want:  "你好",
		},
		{
			name:  "adjacent words different charsets join without separator",
			value: "=?ISO-8859-1?Q?caf=E9?= =?UTF-8?B?IHRlc3Q=?=",
			want:  "café test",
		},
		{
			name:  "unknown charset falls back to utf-8",
			value: "=?x-no-such-charset?Q?abc?=",
			want:  "abc",
		},
		{
			name:  "invalid utf-8 bytes substituted",
			value: "=?UTF-8?B?" + base64.StdEncoding.EncodeToString([]byte{0x61, 0xff, 0x62}) + "?=",
			want:  "a�b",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DecodeHeader(tt.value); got != tt.want {
				t.Errorf("DecodeHeader(%q) = %q, want %q", tt.value, got, tt.want)
			}
		})
	}
}
