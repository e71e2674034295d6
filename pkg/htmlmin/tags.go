package htmlmin

import (
	"strings"

	"github.com/jmylchreest/htmlmin/pkg/htmlparser"
)

type set map[string]bool

func newSet(names string) set {
	s := make(set)
	for _, n := range strings.Split(names, ",") {
		s[n] = true
	}
	return s
}

var (
	// Known HTML elements. Optional tags are only omitted next to these.
	htmlTags = newSet("a,abbr,acronym,address,applet,area,article,aside,audio,b,base,basefont,bdi,bdo,bgsound,big,blink,blockquote,body,br,button,canvas,caption,center,cite,code,col,colgroup,command,content,data,datalist,dd,del,details,dfn,dialog,dir,div,dl,dt,element,em,embed,fieldset,figcaption,figure,font,footer,form,frame,frameset,h1,h2,h3,h4,h5,h6,head,header,hgroup,hr,html,i,iframe,image,img,input,ins,isindex,kbd,keygen,label,legend,li,link,listing,main,map,mark,marquee,menu,menuitem,meta,meter,multicol,nav,nobr,noembed,noframes,noscript,object,ol,optgroup,option,output,p,param,picture,plaintext,pre,progress,q,rb,rp,rt,rtc,ruby,s,samp,script,section,select,shadow,small,source,spacer,span,strike,strong,style,sub,summary,sup,table,tbody,td,template,textarea,tfoot,th,thead,time,title,tr,track,tt,u,ul,var,video,wbr,xmp")

	optionalStartTags = newSet("html,head,body,colgroup,tbody")
	optionalEndTags   = newSet("html,head,body,li,dt,dd,p,rb,rt,rtc,rp,optgroup,option,colgroup,caption,thead,tbody,tfoot,tr,td,th")

	topLevelTags = newSet("html,head,body")
	compactTags  = newSet("html,body")
	looseTags    = newSet("head,colgroup,caption")
	trailingTags = newSet("dt,thead")
	headerTags   = newSet("meta,link,script,style,template,noscript")

	descriptionTags  = newSet("dt,dd")
	pBlockTags       = newSet("address,article,aside,blockquote,details,div,dl,fieldset,figcaption,figure,footer,form,h1,h2,h3,h4,h5,h6,header,hgroup,hr,main,menu,nav,ol,p,pre,section,table,ul")
	pInlineTags      = newSet("a,audio,del,ins,map,noscript,video")
	rubyTags         = newSet("rb,rt,rtc,rp")
	rtcTags          = newSet("rb,rtc,rp")
	optionTags       = newSet("option,optgroup")
	tableContentTags = newSet("tbody,tfoot")
	tableSectionTags = newSet("thead,tbody,tfoot")
	tableCellTags    = newSet("td,th")

	// Content of these is never trimmed or collapsed by default.
	noTrimTags     = newSet("pre,textarea")
	noCollapseTags = newSet("script,style,pre,textarea")
)

// canRemoveParentTag reports whether the pending optional start tag may be
// dropped now that tag is its first child.
func canRemoveParentTag(optionalStart, tag string) bool {
	switch optionalStart {
	case "html", "head":
		return true
	case "body":
		return !headerTags[tag]
	case "colgroup":
		return tag == "col"
	case "tbody":
		return tag == "tr"
	}
	return false
}

// isStartTagMandatory reports whether tag must keep its start tag because the
// end tag before it was omitted.
func isStartTagMandatory(optionalEnd, tag string) bool {
	switch tag {
	case "colgroup":
		return optionalEnd == "colgroup"
	case "tbody":
		return tableSectionTags[optionalEnd]
	}
	return false
}

// canRemovePrecedingTag reports whether the pending optional end tag may be
// dropped because tag follows it.
func canRemovePrecedingTag(optionalEnd, tag string) bool {
	switch optionalEnd {
	case "html", "head", "body", "colgroup", "caption":
		return true
	case "li", "optgroup", "tr":
		return tag == optionalEnd
	case "dt", "dd":
		return descriptionTags[tag]
	case "p":
		return pBlockTags[tag]
	case "rb", "rt", "rp":
		return rubyTags[tag]
	case "rtc":
		return rtcTags[tag]
	case "option":
		return optionTags[tag]
	case "thead", "tbody":
		return tableContentTags[tag]
	case "tfoot":
		return tag == "tbody"
	case "td", "th":
		return tableCellTags[tag]
	}
	return false
}

// canRemoveElement reports whether an empty tag element may be dropped.
func canRemoveElement(tag string, attrs []htmlparser.Attribute) bool {
	switch tag {
	case "textarea":
		return false
	case "audio", "script", "video":
		return !hasAttr(attrs, "src")
	case "iframe":
		return !hasAttr(attrs, "src") && !hasAttr(attrs, "srcdoc")
	case "object":
		return !hasAttr(attrs, "data")
	case "applet":
		return !hasAttr(attrs, "code")
	}
	return true
}

func hasAttr(attrs []htmlparser.Attribute, name string) bool {
	_, ok := attrValue(attrs, name)
	return ok
}

func attrValue(attrs []htmlparser.Attribute, name string) (string, bool) {
	for _, a := range attrs {
		if strings.EqualFold(a.Name, name) {
			return a.Value, true
		}
	}
	return "", false
}
